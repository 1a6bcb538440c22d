package store

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsEngine(t *testing.T) {
	s, err := New("/var/db/midas")
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = New("file:///var/db/midas")
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	_, err = New("gs://bucket/prefix")
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	for _, root := range []string{"db", "./db", "file://db"} {
		got, err := ResolveRoot(root)
		require.NoError(t, err, root)
		require.Equal(t, filepath.Join(cwd, "db"), got, root)
		require.True(t, IsAbsRoot(got), root)
	}

	got, err := ResolveRoot("s3://bucket/prefix")
	require.NoError(t, err)
	require.Equal(t, "s3://bucket/prefix", got)
	require.True(t, IsAbsRoot(got))

	got, err = ResolveRoot("file:///var/db/midas")
	require.NoError(t, err)
	require.Equal(t, filepath.FromSlash("/var/db/midas"), got)

	require.False(t, IsAbsRoot("db"))
	require.False(t, IsAbsRoot("file://db"))

	_, err = ResolveRoot("gs://bucket")
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestFileStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore()
	root := t.TempDir()

	local := filepath.Join(t.TempDir(), "artifact.json")
	require.NoError(t, os.WriteFile(local, []byte(`[1,2,3]`), 0o644))

	remote := filepath.Join(root, "chunks", "genes", "chunksize.10", "S1.json")

	ok, err := fs.Exists(ctx, remote)
	require.NoError(t, err)
	require.False(t, ok)

	// Delete отсутствующего объекта — не ошибка.
	require.NoError(t, fs.Delete(ctx, remote))

	require.NoError(t, fs.Upload(ctx, local, remote))
	ok, err = fs.Exists(ctx, "file://"+remote)
	require.NoError(t, err)
	require.True(t, ok)

	back := filepath.Join(t.TempDir(), "nested", "copy.json")
	require.NoError(t, fs.Download(ctx, remote, back))
	data, err := os.ReadFile(back)
	require.NoError(t, err)
	require.Equal(t, `[1,2,3]`, string(data))

	require.NoError(t, fs.Delete(ctx, remote))
	ok, err = fs.Exists(ctx, remote)
	require.NoError(t, err)
	require.False(t, ok)

	// Временные файлы не остаются рядом с объектом.
	entries, err := os.ReadDir(filepath.Dir(remote))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFileStore_UploadMissingSourceLeavesNothing(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore()
	remote := filepath.Join(t.TempDir(), "x", "a.json")

	err := fs.Upload(ctx, filepath.Join(t.TempDir(), "missing.json"), remote)
	require.Error(t, err)

	ok, err := fs.Exists(ctx, remote)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStore_DownloadNotFound(t *testing.T) {
	err := NewFileStore().Download(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, ErrNotFound)
}

// --- ExistenceChecker ---

type flakyStore struct {
	Store
	failures int
	calls    atomic.Int32
	exists   bool
}

func (f *flakyStore) Exists(context.Context, string) (bool, error) {
	n := int(f.calls.Add(1))
	if n <= f.failures {
		return false, errors.New("503 SlowDown")
	}
	return f.exists, nil
}

func newTestChecker(s Store, attempts int) (*ExistenceChecker, *[]time.Duration) {
	c := NewExistenceChecker(s, RetryPolicy{MaxAttempts: attempts, InitialDelay: time.Second, MaxDelay: 3 * time.Second}, nil)
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

func TestExistenceChecker_AbsorbsTransientErrors(t *testing.T) {
	s := &flakyStore{failures: 2, exists: true}
	c, delays := newTestChecker(s, 3)

	var retries int
	c.OnRetry = func() { retries++ }

	ok, err := c.Exists(context.Background(), "s3://b/k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(3), s.calls.Load())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	require.Equal(t, 2, retries)
}

func TestExistenceChecker_Exhausted(t *testing.T) {
	s := &flakyStore{failures: 10}
	c, _ := newTestChecker(s, 3)

	_, err := c.Exists(context.Background(), "s3://b/k")
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.Contains(t, err.Error(), "503 SlowDown")
	require.Equal(t, int32(3), s.calls.Load())
}

func TestExistenceChecker_CancelledWhileWaiting(t *testing.T) {
	s := &flakyStore{failures: 10}
	c := NewExistenceChecker(s, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Exists(ctx, "s3://b/k")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(1), s.calls.Load())
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	require.Equal(t, 100*time.Millisecond, p.Backoff(1))
	require.Equal(t, 200*time.Millisecond, p.Backoff(2))
	require.Equal(t, 400*time.Millisecond, p.Backoff(3))
	require.Equal(t, time.Second, p.Backoff(10))

	var zero RetryPolicy
	require.Equal(t, DefaultInitialDelay, zero.Backoff(1))
}

// --- S3Store ---

type fakeS3 struct {
	s3iface.S3API
	headErr   error
	deleteErr error
	heads     []string
	deletes   []string
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	f.heads = append(f.heads, *in.Bucket+"/"+*in.Key)
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func notFound() error {
	return awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req-1")
}

func TestS3Store_Exists(t *testing.T) {
	ctx := context.Background()

	client := &fakeS3{}
	s := NewS3WithClient(client)
	ok, err := s.Exists(ctx, "s3://microbiome/db/chunks/genes/chunksize.10/S1.json")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"microbiome/db/chunks/genes/chunksize.10/S1.json"}, client.heads)

	client = &fakeS3{headErr: notFound()}
	ok, err = NewS3WithClient(client).Exists(ctx, "s3://microbiome/key")
	require.NoError(t, err)
	require.False(t, ok)

	client = &fakeS3{headErr: awserr.NewRequestFailure(awserr.New("SlowDown", "slow down", nil), http.StatusServiceUnavailable, "req-2")}
	_, err = NewS3WithClient(client).Exists(ctx, "s3://microbiome/key")
	require.Error(t, err)
}

func TestS3Store_DeleteIsIdempotent(t *testing.T) {
	client := &fakeS3{deleteErr: notFound()}
	require.NoError(t, NewS3WithClient(client).Delete(context.Background(), "s3://microbiome/key"))
	require.Equal(t, []string{"microbiome/key"}, client.deletes)
}

func TestParseS3Path(t *testing.T) {
	bucket, key, err := parseS3Path("s3://bucket/a/b.json")
	require.NoError(t, err)
	require.Equal(t, "bucket", bucket)
	require.Equal(t, "a/b.json", key)

	for _, bad := range []string{"/local/path", "s3://bucket", "s3:///key", "http://bucket/key"} {
		_, _, err := parseS3Path(bad)
		require.ErrorIs(t, err, ErrInvalidLocation, bad)
	}
}
