package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/ports"
)

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	getErr    error
	bucketErr error
	puts      []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.bucketErr
}

func Test_S3Store(t *testing.T) {
	runStoreContract(t, func(t *testing.T) ports.CollectionStore {
		return newS3Store(newFakeS3(), "loans-bucket", "gameloans")
	})
}

func Test_S3Store_ObjectKeys(t *testing.T) {
	client := newFakeS3()
	store := newS3Store(client, "loans-bucket", "prod/gameloans")
	ctx := context.Background()

	require.NoError(t, store.SaveLoanRequests(ctx, sampleRequests()))
	require.NoError(t, store.SaveUsers(ctx, sampleUsers()))

	require.Len(t, client.puts, 2)
	assert.Equal(t, "prod/gameloans/loan-requests.json", aws.ToString(client.puts[0].Key))
	assert.Equal(t, "prod/gameloans/users.json", aws.ToString(client.puts[1].Key))
	assert.Equal(t, "application/json", aws.ToString(client.puts[0].ContentType))
	assert.Contains(t, client.objects, "loans-bucket/prod/gameloans/users.json")
}

func Test_S3Store_Errors(t *testing.T) {
	client := newFakeS3()
	store := newS3Store(client, "loans-bucket", "")
	ctx := context.Background()

	client.getErr = errors.New("access denied")
	_, err := store.LoadGames(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, client.getErr)

	client.bucketErr = errors.New("no such bucket")
	assert.ErrorIs(t, store.HealthCheck(ctx), client.bucketErr)
}

func Test_NewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.S3Config{})
	assert.Error(t, err)
}

func Test_NewS3Store_StaticCredentials(t *testing.T) {
	store, err := NewS3Store(context.Background(), config.S3Config{
		Bucket:          "loans-bucket",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
	})

	require.NoError(t, err)
	backend, ok := store.backend.(*s3Backend)
	require.True(t, ok)
	assert.Equal(t, "loans-bucket", backend.bucket)
	assert.IsType(t, &s3.Client{}, backend.client)
}
