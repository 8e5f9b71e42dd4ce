// Package archive reads the common System V / GNU "ar" format used by
// static libraries (.a), turning one archive file into the sequence of
// member byte slices the linker core's C3 object parser expects to
// receive already mapped. This is ambient plumbing that the driver would
// own in a full linker (spec.md §1 puts archive expansion out of the
// core's scope); it exists here only to let cmd/rvld resolve a bare -lfoo
// into the .o members the core actually parses.
package archive

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	globalHeader = "!<arch>\n"
	headerSize   = 60
)

// Member is one file extracted from an archive.
type Member struct {
	Name string
	Data []byte
}

// Parse splits contents (the full bytes of a .a file) into its member
// files, resolving GNU's extended filename table ("//") and skipping the
// symbol-table member ("/" or "/SYM64/"), since the core computes its own
// global symbol table and has no use for the archive's index.
func Parse(contents []byte) ([]Member, error) {
	if len(contents) < len(globalHeader) || string(contents[:len(globalHeader)]) != globalHeader {
		return nil, fmt.Errorf("archive: missing %q magic", globalHeader)
	}

	var longNames string
	var members []Member

	pos := len(globalHeader)
	for pos+headerSize <= len(contents) {
		hdr := contents[pos : pos+headerSize]
		pos += headerSize

		sizeStr := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("archive: bad member size %q: %w", sizeStr, err)
		}
		if pos+int(size) > len(contents) {
			return nil, fmt.Errorf("archive: member overruns file")
		}

		data := contents[pos : pos+int(size)]
		pos += int(size)
		if size%2 != 0 {
			pos++ // members are padded to an even byte boundary
		}

		rawName := strings.TrimRight(string(hdr[0:16]), " ")

		switch {
		case rawName == "/" || rawName == "/SYM64/":
			// symbol-table member; the core builds its own interner.
			continue
		case rawName == "//":
			longNames = string(data)
			continue
		case strings.HasPrefix(rawName, "/"):
			// GNU extended name: "/<offset>" into the longNames table.
			offset, err := strconv.Atoi(rawName[1:])
			if err != nil || offset >= len(longNames) {
				return nil, fmt.Errorf("archive: bad extended name %q", rawName)
			}
			end := strings.IndexAny(longNames[offset:], "/\n")
			if end < 0 {
				end = len(longNames) - offset
			}
			members = append(members, Member{Name: longNames[offset : offset+end], Data: data})
		default:
			members = append(members, Member{Name: strings.TrimSuffix(rawName, "/"), Data: data})
		}
	}

	return members, nil
}
