package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultURLExpiry applies when no presign expiry is configured.
const DefaultURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned by Stat when nothing is stored under the key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo is what the store knows about an uploaded object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// FileStorage keeps plan images. Bytes travel between the client and the store through
// presigned URLs; the API only ever handles keys.
type FileStorage interface {
	// PresignPut returns a URL that accepts one PUT of contentType under key.
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	// PresignGet returns a URL that serves the object under key.
	PresignGet(ctx context.Context, key string) (string, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// PlanImagePrefix is the key prefix shared by every image of a plan.
func PlanImagePrefix(planHex string) string {
	return path.Join("plans", planHex) + "/"
}

// PlanImageKey returns a fresh key for an image of the plan, e.g. plans/<hex>/<uuid>.png.
func PlanImageKey(planHex, extension string) string {
	return PlanImagePrefix(planHex) + uuid.NewString() + "." + strings.TrimPrefix(extension, ".")
}

// OwnsKey reports whether key was issued for the plan by PlanImageKey.
func OwnsKey(planHex, key string) bool {
	rest, ok := strings.CutPrefix(key, PlanImagePrefix(planHex))
	return ok && rest != "" && !strings.Contains(rest, "/")
}
