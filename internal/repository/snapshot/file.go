package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/next-alarm/internal/config"
	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
)

// Repository defines persistence operations for the last delivery.
type Repository interface {
	Load(ctx context.Context) (*domain.Payload, error)
	Save(ctx context.Context, payload *domain.Payload) error
}

// FileRepository persists the last delivery to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) of a
// google.protobuf.Struct, the same message the gRPC API accepts.
type FileRepository struct {
	// path is the filesystem location of the JSON snapshot file.
	path string
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

// ErrNotFound is returned when the snapshot file does not exist yet.
var ErrNotFound = errors.New("snapshot not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the last delivery from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode snapshot file: %w", err)
	}

	return FromStruct(&message)
}

// Save writes the delivery to disk using JSON representation.
// The file is replaced atomically through a temporary sibling.
func (r *FileRepository) Save(_ context.Context, payload *domain.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := ToStruct(payload)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}

// ToStruct converts a delivery into a protobuf Struct in wire form.
func ToStruct(payload *domain.Payload) (*structpb.Struct, error) {
	if payload == nil {
		payload = new(domain.Payload)
	}

	message, err := structpb.NewStruct(payload.Map())
	if err != nil {
		return nil, fmt.Errorf("convert snapshot: %w", err)
	}

	return message, nil
}

// FromStruct converts a protobuf Struct in wire form into a delivery.
func FromStruct(message *structpb.Struct) (*domain.Payload, error) {
	data, err := protojson.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	payload, err := domain.ParsePayload(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	return payload, nil
}
