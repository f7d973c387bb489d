package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veryus/internal/config"
)

// ErrObjectNotFound is returned by Open and Delete for unknown paths.
var ErrObjectNotFound = errors.New("object not found")

// MaxUploadSize bounds a single upload.
const MaxUploadSize = 50 << 20

// Object is an open stored file. The caller closes it.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStore keeps uploaded binaries by slash separated path.
type ObjectStore interface {
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	Open(ctx context.Context, path string) (*Object, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// UploadResult describes a stored upload.
type UploadResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

var allowedUploads = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
}

// UploadFile stores a multipart upload under prefix/YYYY/MM with a fresh name.
func UploadFile(ctx context.Context, store ObjectStore, file multipart.File, header *multipart.FileHeader, prefix string) (*UploadResult, error) {
	if header.Size > MaxUploadSize {
		return nil, fmt.Errorf("file too large: %d bytes", header.Size)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedUploads[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	now := time.Now()
	p := path.Join(prefix, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
	if err := store.Put(ctx, p, io.LimitReader(file, MaxUploadSize), contentType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &UploadResult{URL: store.URL(p), Path: p, ContentType: contentType}, nil
}

// NewObjectStore builds the store selected by cfg.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "gridfs":
		return NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return NewDiskStore(cfg.Dir)
	}
}

func contentTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := allowedUploads[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// cleanPath normalises p and rejects escapes from the store root.
func cleanPath(p string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return clean, nil
}

func objectURL(p string) string { return "/files/" + p }

// DiskStore keeps objects below a local directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) file(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *DiskStore) Put(_ context.Context, p string, r io.Reader, _ string) error {
	name, err := s.file(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	return f.Close()
}

func (s *DiskStore) Open(_ context.Context, p string) (*Object, error) {
	name, err := s.file(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}
	return &Object{ReadCloser: f, ContentType: contentTypeOf(name), Size: info.Size()}, nil
}

func (s *DiskStore) Delete(_ context.Context, p string) error {
	name, err := s.file(p)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

func (s *DiskStore) URL(p string) string { return objectURL(p) }

// GridFSStore keeps objects in a MongoDB GridFS bucket, named by path.
type GridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

func NewGridFSStore(ctx context.Context, uri, database string) (*GridFSStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	bucket, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName("uploads"))
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{client: client, bucket: bucket}, nil
}

func (s *GridFSStore) Put(_ context.Context, p string, r io.Reader, contentType string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	if _, err := s.bucket.UploadFromStream(clean, r, opts); err != nil {
		return fmt.Errorf("gridfs upload: %w", err)
	}
	return nil
}

func (s *GridFSStore) Open(_ context.Context, p string) (*Object, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	stream, err := s.bucket.OpenDownloadStreamByName(clean)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gridfs open: %w", err)
	}
	file := stream.GetFile()
	contentType := mime.TypeByExtension(path.Ext(clean))
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			contentType = ct
		}
	}
	return &Object{ReadCloser: stream, ContentType: contentType, Size: file.Length}, nil
}

func (s *GridFSStore) Delete(ctx context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	cursor, err := s.bucket.FindContext(ctx, bson.D{{Key: "filename", Value: clean}})
	if err != nil {
		return fmt.Errorf("gridfs find: %w", err)
	}
	defer cursor.Close(ctx)

	found := false
	for cursor.Next(ctx) {
		var file gridfs.File
		if err := cursor.Decode(&file); err != nil {
			return fmt.Errorf("gridfs decode: %w", err)
		}
		if err := s.bucket.DeleteContext(ctx, file.ID); err != nil {
			return fmt.Errorf("gridfs delete: %w", err)
		}
		found = true
	}
	if !found {
		return ErrObjectNotFound
	}
	return cursor.Err()
}

func (s *GridFSStore) URL(p string) string { return objectURL(p) }

// Close disconnects from MongoDB.
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
