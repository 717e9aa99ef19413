package filestorage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.lastPut = in
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func newTestR2(t *testing.T, api *fakeS3) *R2Storage {
	t.Helper()
	r2, err := NewR2Storage(R2Config{
		EndpointURL:     "https://account.r2.cloudflarestorage.com",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "tutoring",
	}, zerolog.Nop())
	require.NoError(t, err)
	r2.client = api
	r2.newName = func() string { return "fixed" }
	return r2
}

func TestR2Config_Complete(t *testing.T) {
	assert.False(t, R2Config{}.Complete())
	assert.False(t, R2Config{EndpointURL: "e", AccessKeyID: "a", SecretAccessKey: "s"}.Complete())
	assert.True(t, R2Config{EndpointURL: "e", AccessKeyID: "a", SecretAccessKey: "s", BucketName: "b"}.Complete())

	_, err := NewR2Storage(R2Config{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestR2Storage_SaveOpenExistsDelete(t *testing.T) {
	api := newFakeS3()
	r2 := newTestR2(t, api)
	ctx := context.Background()

	obj, err := r2.Save(ctx, SaveRequest{Dir: "completed_forms", Ext: ".pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "completed_forms/fixed.pdf", obj.Key)
	assert.Equal(t, BackendR2, obj.Backend)
	assert.Equal(t, "tutoring", aws.ToString(api.lastPut.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(api.lastPut.ContentType))

	rc, err := r2.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, []byte("%PDF-1.4"), data)

	exists, err := r2.Exists(ctx, obj.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r2.Delete(ctx, obj.Key))
	exists, err = r2.Exists(ctx, obj.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r2.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestR2Storage_PresignedURL(t *testing.T) {
	r2 := newTestR2(t, newFakeS3())

	// presigning is computed locally from the static credentials
	client := s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: aws.String("https://account.r2.cloudflarestorage.com"),
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		UsePathStyle: true,
	})
	r2.presigner = s3.NewPresignClient(client)

	raw, err := r2.URL(context.Background(), "completed_forms/fixed.pdf", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "account.r2.cloudflarestorage.com", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/tutoring/completed_forms/fixed.pdf"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestStore_UsesRemoteWhenHealthy(t *testing.T) {
	local, _ := newTestLocal(t)
	api := newFakeS3()
	store := NewStore(local, newTestR2(t, api), zerolog.Nop())

	obj, err := store.Save(context.Background(), SaveRequest{Dir: "completed_forms", Ext: ".pdf", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, BackendR2, obj.Backend)
	assert.Equal(t, BackendR2, store.Primary())
	assert.Contains(t, api.objects, obj.Key)
}

func TestStore_FallsBackToLocalOnRemoteFailure(t *testing.T) {
	local, _ := newTestLocal(t)
	api := newFakeS3()
	api.putErr = errors.New("connection reset")
	store := NewStore(local, newTestR2(t, api), zerolog.Nop())

	var fallbackErr error
	store.OnFallback(func(err error) { fallbackErr = err })

	obj, err := store.Save(context.Background(), SaveRequest{Dir: "completed_forms", Ext: ".pdf", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, obj.Backend)
	assert.Error(t, fallbackErr)

	rc, err := store.Open(context.Background(), obj.Backend, obj.Key)
	require.NoError(t, err)
	rc.Close()
}

func TestStore_LocalOnlyWithoutRemote(t *testing.T) {
	local, _ := newTestLocal(t)
	store := NewStore(local, nil, zerolog.Nop())

	assert.Equal(t, BackendLocal, store.Primary())
	obj, err := store.Save(context.Background(), SaveRequest{Dir: "signatures", NamePrefix: "signature_", Ext: ".png", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, obj.Backend)
	assert.True(t, strings.HasPrefix(obj.Key, "signatures/signature_"))

	_, err = store.Open(context.Background(), BackendR2, obj.Key)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
