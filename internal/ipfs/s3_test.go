package ipfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentKey_StableAndContentAddressed(t *testing.T) {
	data := []byte("photo-bytes")
	sum := sha256.Sum256(data)

	key := ContentKey(data)
	assert.Equal(t, "blobs/"+hex.EncodeToString(sum[:]), key)
	assert.Equal(t, key, ContentKey([]byte("photo-bytes")))
	assert.NotEqual(t, key, ContentKey([]byte("other")))
}

func newFakeS3Store(t *testing.T, put func(*s3.PutObjectInput) (*s3.PutObjectOutput, error)) *S3Store {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(aws.Config, ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return put(in)
	}

	store, err := NewS3Store(context.Background(), S3Config{Region: "eu-west-1", Bucket: "trees"})
	require.NoError(t, err)
	return store
}

func TestS3Store_PutBytes(t *testing.T) {
	var gotBucket, gotKey string
	var gotBody []byte

	store := newFakeS3Store(t, func(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody = b
		return &s3.PutObjectOutput{}, nil
	})

	key, err := store.PutBytes(context.Background(), []byte("photo-bytes"))
	require.NoError(t, err)
	assert.Equal(t, ContentKey([]byte("photo-bytes")), key)
	assert.Equal(t, "trees", gotBucket)
	assert.Equal(t, key, gotKey)
	assert.Equal(t, []byte("photo-bytes"), gotBody)
}

func TestS3Store_PutBytesError(t *testing.T) {
	store := newFakeS3Store(t, func(*s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	})

	_, err := store.PutBytes(context.Background(), []byte("photo-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
