// Package upload drives the two-step content upload for one submission:
// photo bytes to content-addressed storage, then the metadata document
// referencing the photo hash. The returned metadata hash is what the
// transaction pipeline anchors on-chain.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/verdantlab/ranger/internal/ipfs"
	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/treespec"
)

var (
	// ErrNoPhoto means the submission context carries no photo reference.
	ErrNoPhoto = errors.New("no photo captured")

	// ErrMissingReferenceData means an update was attempted before the
	// tree's prior metadata could be fetched. Not retried automatically:
	// retrying blindly could anchor an incomplete update.
	ErrMissingReferenceData = errors.New("tree data not loaded")
)

// readPhoto is a test seam for loading photo bytes.
var readPhoto = os.ReadFile

// TreeLookup fetches the current metadata document of an existing tree.
// Absence is a hard precondition failure for updates; retry is the caller's
// concern, not this interface's.
type TreeLookup interface {
	TreeSpec(ctx context.Context, treeID string) (*treespec.Spec, error)
}

// Context carries everything the pipeline needs for one submission.
type Context struct {
	Kind          models.QueueKind
	TargetTreeID  string
	Photo         string
	Location      *models.Geocoordinate
	PhotoLocation *models.Geocoordinate
	Birthday      int64
	Nursery       bool
}

// Pipeline uploads photos and metadata documents. Photo hashes are cached by
// photo reference so a metadata-upload retry skips the photo step; the cache
// is only an optimization, since the store is idempotent by content anyway.
type Pipeline struct {
	store      ipfs.ContentStore
	lookup     TreeLookup
	gatewayURL string
	log        logging.Logger

	mu          sync.Mutex
	photoHashes map[string]string
}

// NewPipeline returns a pipeline uploading to store and resolving prior
// metadata through lookup.
func NewPipeline(store ipfs.ContentStore, lookup TreeLookup, gatewayURL string, log logging.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		lookup:      lookup,
		gatewayURL:  gatewayURL,
		log:         log,
		photoHashes: make(map[string]string),
	}
}

// UploadSubmission runs the photo upload, builds the metadata document for
// the submission kind, uploads it, and returns the metadata content hash.
// A photo upload failure aborts before any metadata is built, so no document
// ever references a missing photo.
func (p *Pipeline) UploadSubmission(ctx context.Context, sub Context) (string, error) {
	if sub.Photo == "" {
		return "", ErrNoPhoto
	}

	photoHash, err := p.uploadPhoto(ctx, sub.Photo)
	if err != nil {
		return "", fmt.Errorf("photo upload: %w", err)
	}

	spec, err := p.buildSpec(ctx, sub, photoHash)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to encode tree spec: %w", err)
	}

	metaHash, err := p.store.PutBytes(ctx, data)
	if err != nil {
		return "", fmt.Errorf("metadata upload: %w", err)
	}

	p.log.Info(ctx, "submission content uploaded",
		"kind", string(sub.Kind), "photo_hash", photoHash, "meta_hash", metaHash)

	return metaHash, nil
}

func (p *Pipeline) uploadPhoto(ctx context.Context, photo string) (string, error) {
	p.mu.Lock()
	cached, ok := p.photoHashes[photo]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := readPhoto(photo)
	if err != nil {
		return "", fmt.Errorf("failed to read photo %s: %w", photo, err)
	}

	hash, err := p.store.PutBytes(ctx, data)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.photoHashes[photo] = hash
	p.mu.Unlock()

	return hash, nil
}

func (p *Pipeline) buildSpec(ctx context.Context, sub Context, photoHash string) (*treespec.Spec, error) {
	switch sub.Kind {
	case models.KindUpdate:
		prior, err := p.lookup.TreeSpec(ctx, sub.TargetTreeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingReferenceData, err)
		}
		if prior == nil {
			return nil, ErrMissingReferenceData
		}
		p.logUpdateDistance(ctx, sub, prior)
		return treespec.UpdatedTree(p.gatewayURL, prior, photoHash, sub.Location, sub.Birthday), nil

	case models.KindPlantAssigned:
		return treespec.AssignedTree(p.gatewayURL, sub.TargetTreeID, photoHash, sub.Location, sub.Birthday), nil

	default:
		return treespec.NewTree(p.gatewayURL, photoHash, sub.Location, sub.Birthday, sub.Nursery), nil
	}
}

// logUpdateDistance records how far the update photo was taken from the
// tree's registered coordinate. Diagnostics only.
func (p *Pipeline) logUpdateDistance(ctx context.Context, sub Context, prior *treespec.Spec) {
	if sub.PhotoLocation == nil || prior.Location == nil {
		return
	}
	d := treespec.DistanceMeters(*sub.PhotoLocation, treespec.Coordinate(*prior.Location))
	p.log.Info(ctx, "update distance from registered coordinate",
		"tree_id", sub.TargetTreeID, "meters", d)
}
