package transfer

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFTP answers directory changes and listings from a fixed tree.
type fakeFTP struct {
	cwd     string
	dirs    map[string][]*ftp.Entry
	changes []string
	quits   int
}

func (c *fakeFTP) CurrentDir() (string, error) {
	return c.cwd, nil
}

func (c *fakeFTP) ChangeDir(p string) error {
	c.changes = append(c.changes, p)
	if _, ok := c.dirs[p]; !ok {
		return errors.New("550 not a directory")
	}
	c.cwd = p
	return nil
}

func (c *fakeFTP) List(p string) ([]*ftp.Entry, error) {
	entries, ok := c.dirs[p]
	if !ok {
		return nil, errors.New("550 no such directory")
	}
	return entries, nil
}

func (c *fakeFTP) Retr(string) (*ftp.Response, error) {
	return nil, errors.New("550 retr not supported")
}

func (c *fakeFTP) Quit() error {
	c.quits++
	return nil
}

var ftpTime = time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

func newFakeFTP() *fakeFTP {
	return &fakeFTP{
		cwd: "/home/mirror",
		dirs: map[string][]*ftp.Entry{
			"/home/mirror": {},
			"/": {
				{Name: "pub", Type: ftp.EntryTypeFolder, Time: ftpTime},
			},
			"/pub": {
				{Name: ".", Type: ftp.EntryTypeFolder, Time: ftpTime},
				{Name: "..", Type: ftp.EntryTypeFolder, Time: ftpTime},
				{Name: "2024", Type: ftp.EntryTypeFolder, Time: ftpTime},
				{Name: "readme.txt", Type: ftp.EntryTypeFile, Size: 12, Time: ftpTime.Add(750 * time.Millisecond)},
				{Name: "latest", Type: ftp.EntryTypeLink, Size: 4, Time: ftpTime},
			},
			"/pub/2024": {},
		},
	}
}

func TestFTPListSkipsDotEntries(t *testing.T) {
	f := &ftpFS{conn: newFakeFTP()}

	entries, err := f.List(context.Background(), "/pub")
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Path: "/pub/2024", Name: "2024", IsDir: true, ModTime: ftpTime},
		{Path: "/pub/readme.txt", Name: "readme.txt", Size: 12, ModTime: ftpTime},
		{Path: "/pub/latest", Name: "latest", Size: 4, ModTime: ftpTime},
	}, entries)
}

func TestFTPStatDirectoryRestoresWorkingDir(t *testing.T) {
	conn := newFakeFTP()
	f := &ftpFS{conn: conn}

	e, err := f.Stat(context.Background(), "/pub/2024/")
	require.NoError(t, err)

	assert.Equal(t, Entry{Path: "/pub/2024", Name: "2024", IsDir: true}, e)
	assert.Equal(t, "/home/mirror", conn.cwd)
	assert.Equal(t, []string{"/pub/2024", "/home/mirror"}, conn.changes)
}

func TestFTPStatFileFromParentListing(t *testing.T) {
	conn := newFakeFTP()
	f := &ftpFS{conn: conn}

	e, err := f.Stat(context.Background(), "/pub/readme.txt")
	require.NoError(t, err)

	assert.False(t, e.IsDir)
	assert.Equal(t, "/pub/readme.txt", e.Path)
	assert.EqualValues(t, 12, e.Size)
	assert.Equal(t, ftpTime, e.ModTime)
	assert.Equal(t, "/home/mirror", conn.cwd)
}

func TestFTPStatMissing(t *testing.T) {
	f := &ftpFS{conn: newFakeFTP()}

	_, err := f.Stat(context.Background(), "/pub/nope.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.Stat(context.Background(), "/missing/nope.txt")
	assert.Error(t, err)
}

func TestFTPOpenError(t *testing.T) {
	f := &ftpFS{conn: newFakeFTP()}

	rc, err := f.Open(context.Background(), "/pub/readme.txt")
	require.Error(t, err)
	assert.Nil(t, rc)
}

func TestFTPCloseQuitsOnce(t *testing.T) {
	conn := newFakeFTP()
	f := &ftpFS{conn: conn}

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, 1, conn.quits)
}

func TestFTPCloseAfterAbortSkipsQuit(t *testing.T) {
	conn := newFakeFTP()
	f := &ftpFS{conn: conn}

	f.Abort()
	require.NoError(t, f.Close())
	assert.Zero(t, conn.quits)
}

func TestFTPMirrorIsDir(t *testing.T) {
	m := NewMirror(&ftpFS{conn: newFakeFTP()}, MirrorOptions{})

	isDir, err := m.IsDir(context.Background(), "/pub")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = m.IsDir(context.Background(), "/pub/readme.txt")
	require.NoError(t, err)
	assert.False(t, isDir)
}
