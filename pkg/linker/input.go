package linker

import (
	"fmt"

	"github.com/golinker/rvld/pkg/archive"
	"github.com/golinker/rvld/pkg/utils"
)

// ReadInputFiles walks the command-line operands left over after option
// parsing (object files, -lfoo archive references, and .so files) and
// turns each into an ObjectFile or SharedFile registered with ctx,
// assigning file priorities in left-to-right order so resolution ties
// break the way the command line implies.
func ReadInputFiles(ctx *Context, remaining []string) {
	for _, arg := range remaining {
		if name, ok := utils.RemovePrefix(arg, "-l"); ok {
			ReadFile(ctx, FindLibrary(ctx, name))
			continue
		}
		ReadFile(ctx, MustNewFile(arg))
	}
}

// ReadFile classifies one mapped file and either registers it directly (a
// plain .o or .so named on the command line) or expands it as an archive
// and registers each .o member, marked not-yet-reachable until C8 proves
// otherwise.
func ReadFile(ctx *Context, file *File) {
	switch GetFileType(file.Contents) {
	case FileTypeObject:
		ctx.AddObject(CreateObjectFile(ctx, file, false))
	case FileTypeSharedObject:
		ctx.AddDSO(CreateSharedFile(ctx, file))
	case FileTypeArchive:
		for _, child := range ReadArchiveMembers(file) {
			if GetFileType(child.Contents) != FileTypeObject {
				continue // skip non-ELF members (build metadata, etc.)
			}
			ctx.AddObject(CreateObjectFile(ctx, child, true))
		}
	default:
		ctx.Logger.Fatal("unknown file type: " + file.Name)
	}
}

// ReadArchiveMembers expands a .a file into per-member *File values,
// keeping Parent pointed at the archive so diagnostics can print
// "libfoo.a(bar.o)" the way a linker's own error messages do.
func ReadArchiveMembers(file *File) []*File {
	members, err := archive.Parse(file.Contents)
	utils.MustNo(err)

	files := make([]*File, 0, len(members))
	for _, m := range members {
		files = append(files, &File{Name: m.Name, Contents: m.Data, Parent: file})
	}
	return files
}

// CreateObjectFile and CreateSharedFile only do the cheap, sequential
// part of ingesting a file (ELF-view header/section-table decoding via
// NewInputFile, plus priority assignment, which must happen in
// command-line order). The expensive per-file work each defers to its
// own Parse method is run concurrently afterward by ParseAll.
func CreateObjectFile(ctx *Context, file *File, inArchive bool) *ObjectFile {
	CheckFileCompatibility(ctx, file)
	obj := NewObjectFile(file, !inArchive, archiveNameOf(file))
	obj.InArchive = inArchive
	obj.Priority = ctx.NextFilePriority()
	return obj
}

func CreateSharedFile(ctx *Context, file *File) *SharedFile {
	CheckFileCompatibility(ctx, file)
	dso := NewSharedFile(file)
	dso.Priority = ctx.NextFilePriority()
	return dso
}

func archiveNameOf(file *File) string {
	if file.Parent == nil {
		return ""
	}
	return file.Parent.Name
}

// CheckFileCompatibility fails the link immediately if file was built for
// a different machine than ctx.Args.Emulation, the same early sanity
// check a real linker's driver runs before handing a file to the object
// parser proper.
func CheckFileCompatibility(ctx *Context, file *File) {
	mt := GetMachineTypeFromContents(file.Contents)
	if mt != MachineTypeNone && mt != ctx.Args.Emulation {
		ctx.Logger.Fatal(fmt.Sprintf("%s: incompatible file type", file.Name))
	}
}

// GetMachineTypeFromContents reports the e_machine field of an ELF image,
// or MachineTypeNone if contents isn't one (e.g. an archive member that
// turned out not to be an ELF object).
func GetMachineTypeFromContents(contents []byte) MachineType {
	if !CheckMagic(contents) || len(contents) < EhdrSize {
		return MachineTypeNone
	}
	ehdr := utils.Read[Ehdr](contents)
	return MachineType(ehdr.Machine)
}
