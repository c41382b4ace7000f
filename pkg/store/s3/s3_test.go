package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/annograph/backend/internal/storage"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	out := &awss3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, *in.Prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	objects := &fakeObjects{objects: map[string][]byte{}}
	s := New(storage.NewBucket(objects, "bucket"), "/sessions/")
	handle := store.Handle("7")

	if _, err := s.Load(ctx, handle); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load() error = %v, want %v", err, store.ErrNotFound)
	}

	items := []common.QuestionAndAnswer{common.NewQuestionAndAnswer("qa", "q")}
	if err := s.Save(ctx, handle, items); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := objects.objects["sessions/__annograph__7.json"]; !ok {
		t.Fatalf("object keys = %v", objects.objects)
	}

	got, err := s.Load(ctx, handle)
	if err != nil || !reflect.DeepEqual(got, items) {
		t.Fatalf("Load() = %+v, %v", got, err)
	}

	handles, err := s.Handles(ctx)
	if err != nil || !reflect.DeepEqual(handles, []string{handle}) {
		t.Fatalf("Handles() = %v, %v", handles, err)
	}

	if err := s.Delete(ctx, handle); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(ctx, handle); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load() after Delete error = %v", err)
	}
}
