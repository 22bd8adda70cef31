package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubS3Client struct {
	headErr error
	putErr  error
	heads   int
	puts    []*s3.PutObjectInput
}

func (c *stubS3Client) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.heads++
	if c.headErr != nil {
		return nil, c.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (c *stubS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if c.putErr != nil {
		return nil, c.putErr
	}
	c.puts = append(c.puts, input)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put_UploadsNewObject(t *testing.T) {
	client := &stubS3Client{headErr: errors.New("NotFound: no such key")}
	st := NewS3StoreWithClient(client, "wellfile-archive")

	err := st.Put(context.Background(), "filings/42-501-30270/abc.json", []byte(`{"id":"abc"}`), "application/json")
	require.NoError(t, err)
	require.Len(t, client.puts, 1)

	input := client.puts[0]
	assert.Equal(t, "wellfile-archive", *input.Bucket)
	assert.Equal(t, "filings/42-501-30270/abc.json", *input.Key)
	assert.Equal(t, "application/json", *input.ContentType)

	body, err := io.ReadAll(input.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc"}`, string(body))
}

func TestS3Put_SkipsExistingObject(t *testing.T) {
	client := &stubS3Client{}
	st := NewS3StoreWithClient(client, "wellfile-archive")

	err := st.Put(context.Background(), "filings/42-501-30270/abc.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, 1, client.heads)
	assert.Empty(t, client.puts)
}

func TestS3Put_PropagatesUploadFailure(t *testing.T) {
	client := &stubS3Client{
		headErr: errors.New("NotFound: no such key"),
		putErr:  errors.New("access denied"),
	}
	st := NewS3StoreWithClient(client, "wellfile-archive")

	err := st.Put(context.Background(), "filings/42-501-30270/abc.json", []byte(`{}`), "application/json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put object")
}
