package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8080/assets")
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Put(ctx, "p1/seg-1.wav", []byte("RIFFdata"), "audio/wav")
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://localhost:8080/assets/p1/seg-1.wav" {
		t.Errorf("url = %s", url)
	}
	key, ok := s.KeyForURL(url)
	if !ok || key != "p1/seg-1.wav" {
		t.Fatalf("KeyForURL = %q, %v", key, ok)
	}
	b, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(b.Data) != "RIFFdata" {
		t.Errorf("data = %q", b.Data)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalStore_rejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := s.Put(context.Background(), k, []byte("x"), ""); err == nil {
			t.Errorf("Put(%q) should fail", k)
		}
	}
	if _, ok := s.KeyForURL("http://elsewhere/x.wav"); ok {
		t.Error("store without base URL should not own http URLs")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(f.types[aws.ToString(in.Key)]),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_roundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := NewS3Store(fake, S3Options{Bucket: "casts", Prefix: "audio", Endpoint: "http://minio:9000"})

	url, err := s.Put(ctx, "p1/seg-2.wav", []byte("pcm"), "audio/wav")
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://minio:9000/casts/audio/p1/seg-2.wav" {
		t.Errorf("url = %s", url)
	}
	if _, ok := fake.objects["audio/p1/seg-2.wav"]; !ok {
		t.Error("object should be stored under prefix")
	}
	key, ok := s.KeyForURL(url)
	if !ok || key != "p1/seg-2.wav" {
		t.Fatalf("KeyForURL = %q, %v", key, ok)
	}
	b, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(b.Data) != "pcm" || b.ContentType != "audio/wav" {
		t.Errorf("blob = %+v", b)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestNewS3Store_defaultPublicURL(t *testing.T) {
	s := NewS3Store(newFakeS3(), S3Options{Bucket: "b", Region: "eu-west-1"})
	if s.publicURL != "https://b.s3.eu-west-1.amazonaws.com" {
		t.Errorf("publicURL = %s", s.publicURL)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	local, err := NewLocalStore(t.TempDir(), "http://studycast.local/assets")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	localURL, err := local.Put(ctx, "a.wav", []byte("local"), "audio/wav")
	if err != nil {
		t.Fatal(err)
	}

	f := NewHTTPFetcher(srv.Client(), local)
	b, err := f.Fetch(ctx, srv.URL+"/x.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if string(b.Data) != "ID3" || b.ContentType != "audio/mpeg" {
		t.Errorf("remote blob = %+v", b)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
	b, err = f.Fetch(ctx, localURL)
	if err != nil {
		t.Fatal(err)
	}
	if string(b.Data) != "local" {
		t.Errorf("local blob = %q", b.Data)
	}
}

func TestLocalStore_fileURLsWithoutBase(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Put(ctx, "q/1.wav", []byte("abc"), "audio/wav")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewHTTPFetcher(nil, s).Fetch(ctx, url)
	if err != nil {
		t.Fatalf("fetch %s: %v", url, err)
	}
	if string(b.Data) != "abc" {
		t.Errorf("data = %q", b.Data)
	}
}
