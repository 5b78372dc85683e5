package drop

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"csfe-soap/internal/source"

	CharmLog "github.com/charmbracelet/log"
	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const captured = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body><NoOpResponse/></soap:Body></soap:Envelope>`

func newDropClient(t *testing.T) (*sftp.Client, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "noop.xml"), []byte(captured), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "faults"), 0755))

	d, err := New(root, CharmLog.New(io.Discard))
	require.NoError(t, err)

	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, d.Handlers())
	go server.Serve()
	t.Cleanup(func() { server.Close() })

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, root
}

func TestNew_Validation(t *testing.T) {
	logger := CharmLog.New(io.Discard)

	_, err := New("", logger)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), logger)
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = New(file, logger)
	assert.ErrorContains(t, err, "not a directory")
}

func TestDrop_Read(t *testing.T) {
	client, _ := newDropClient(t)

	data, err := source.ReadSFTP(client, "/noop.xml")
	require.NoError(t, err)
	assert.Equal(t, captured, string(data))

	data, err = source.ReadSFTP(client, "/faults/../../noop.xml")
	require.NoError(t, err)
	assert.Equal(t, captured, string(data))
}

func TestDrop_ListAndStat(t *testing.T) {
	client, _ := newDropClient(t)

	entries, err := client.ReadDir("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"noop.xml", "faults"}, names)

	info, err := client.Stat("/noop.xml")
	require.NoError(t, err)
	assert.Equal(t, int64(len(captured)), info.Size())
}

func TestDrop_ReadOnly(t *testing.T) {
	client, root := newDropClient(t)

	_, err := client.Create("/new.xml")
	assert.Error(t, err)

	assert.Error(t, client.Remove("/noop.xml"))
	assert.Error(t, client.Mkdir("/more"))

	_, err = os.Stat(filepath.Join(root, "noop.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "more"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLister_ListAt(t *testing.T) {
	info, err := os.Stat(t.TempDir())
	require.NoError(t, err)
	l := lister{info, info, info}

	buf := make([]os.FileInfo, 2)
	n, err := l.ListAt(buf, 0)
	assert.Equal(t, 2, n)
	assert.NoError(t, err)

	n, err = l.ListAt(buf, 2)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = l.ListAt(buf, 3)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}
