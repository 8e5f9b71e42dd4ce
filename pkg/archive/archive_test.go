package archive

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// member renders one archive member's 60-byte header plus padded data,
// using an ar-format header record (name, mtime, uid, gid, mode, size, magic).
func member(name string, data []byte) []byte {
	hdr := fmt.Sprintf("%-16s%-12d%-6d%-6d%-8s%-10d`\n", name, 0, 0, 0, "100644", len(data))
	buf := append([]byte(hdr), data...)
	if len(data)%2 != 0 {
		buf = append(buf, '\n')
	}
	return buf
}

func buildArchive(members map[string][]byte, order []string) []byte {
	var buf []byte
	buf = append(buf, []byte(globalHeader)...)
	for _, name := range order {
		buf = append(buf, member(name+"/", members[name])...)
	}
	return buf
}

func TestParseSimpleArchive(t *testing.T) {
	members := map[string][]byte{
		"foo.o": []byte("FOODATA!"),
		"bar.o": []byte("BARDATA"),
	}
	order := []string{"foo.o", "bar.o"}

	out, err := Parse(buildArchive(members, order))
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "foo.o", out[0].Name)
	require.Equal(t, []byte("FOODATA!"), out[0].Data)
	require.Equal(t, "bar.o", out[1].Name)
	require.Equal(t, []byte("BARDATA"), out[1].Data)
}

func TestParseSkipsSymbolTableMember(t *testing.T) {
	var buf []byte
	buf = append(buf, []byte(globalHeader)...)
	buf = append(buf, member("/", []byte("ignored-symtab"))...)
	buf = append(buf, member("foo.o/", []byte("DATA"))...)

	out, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "foo.o", out[0].Name)
}

func TestParseResolvesGnuExtendedNames(t *testing.T) {
	longName := "a-very-long-member-name-that-does-not-fit.o"
	longNames := longName + "/\n"

	var buf []byte
	buf = append(buf, []byte(globalHeader)...)
	buf = append(buf, member("//", []byte(longNames))...)
	buf = append(buf, member("/0", []byte("PAYLOAD"))...)

	out, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, longName, out[0].Name)
	require.Equal(t, []byte("PAYLOAD"), out[0].Data)
}

func TestParseRejectsMissingMagic(t *testing.T) {
	_, err := Parse([]byte("not an archive"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "magic"))
}
