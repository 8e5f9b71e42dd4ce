package linker

import (
	"os"

	"github.com/golinker/rvld/pkg/utils"
)

// File wraps the raw bytes of one input given on the command line. Parent
// points back at the archive a member was extracted from, or nil for
// top-level inputs.
type File struct {
	Name     string
	Contents []byte
	Parent   *File
}

func MustNewFile(filename string) *File {
	contents, err := os.ReadFile(filename)
	utils.MustNo(err)
	return &File{Name: filename, Contents: contents}
}

func OpenLibrary(filepath string) *File {
	contents, err := os.ReadFile(filepath)
	if err != nil {
		return nil
	}
	return &File{Name: filepath, Contents: contents}
}

// FindLibrary resolves a bare -lfoo argument against ctx.Args.LibraryPaths,
// returning the first lib<name>.a found.
func FindLibrary(ctx *Context, name string) *File {
	for _, dir := range ctx.Args.LibraryPaths {
		stem := dir + "/lib" + name + ".a"
		if f := OpenLibrary(stem); f != nil {
			return f
		}
	}
	ctx.Logger.Fatal("library not found: -l" + name)
	return nil
}
