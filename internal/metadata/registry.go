package metadata

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// Scheduler is the surface handlers see: register a one-shot fetch job for
// a content hash. Implemented by Registry.
type Scheduler interface {
	Register(kind entities.Kind, hash string)
}

// Job is one registered fetch-and-parse unit of work. Token is a uuid-v7
// minted at registration, used only for log correlation.
type Job struct {
	Token string
	Kind  entities.Kind
	Hash  string
}

// Registry tracks registered metadata jobs and materializes their results.
// It runs inside the single-writer indexing loop and needs no locking.
type Registry struct {
	store   store.Store
	pending map[string]Job
	done    map[string]bool
}

var _ Scheduler = (*Registry)(nil)

// NewRegistry returns an empty registry persisting into st.
func NewRegistry(st store.Store) *Registry {
	return &Registry{
		store:   st,
		pending: make(map[string]Job),
		done:    make(map[string]bool),
	}
}

// Register schedules a one-shot fetch for hash. Empty hashes, hashes with
// a pending job, and hashes already materialized in the store are no-ops.
// Only the three metadata kinds are accepted.
func (r *Registry) Register(kind entities.Kind, hash string) {
	if hash == "" {
		return
	}
	switch kind {
	case entities.KindMetadata, entities.KindFulfillerMetadata, entities.KindSupplierMetadata:
	default:
		slog.Warn("metadata registration for non-metadata kind ignored", "kind", string(kind))
		return
	}

	id := jobID(string(kind), hash)
	if r.pending[id] != (Job{}) || r.done[id] {
		return
	}
	if _, ok, err := r.store.Load(kind, ids.Key(hash)); err == nil && ok {
		r.done[id] = true
		return
	}

	r.pending[id] = Job{
		Token: uuid.Must(uuid.NewV7()).String(),
		Kind:  kind,
		Hash:  hash,
	}
}

// Pending returns the registered-but-unresolved jobs, ordered by job id
// for deterministic processing.
func (r *Registry) Pending() []Job {
	idList := make([]string, 0, len(r.pending))
	for id := range r.pending {
		idList = append(idList, id)
	}
	sort.Strings(idList)

	out := make([]Job, 0, len(idList))
	for _, id := range idList {
		out = append(out, r.pending[id])
	}
	return out
}

// Run drains pending jobs through the fetcher, parsing and persisting one
// metadata entity per job. A fetch failure is logged and the job dropped;
// redelivery of the originating event re-registers it. Parse failures
// still persist an empty record so the hash is not refetched forever.
func (r *Registry) Run(ctx context.Context, f Fetcher) error {
	for _, job := range r.Pending() {
		id := jobID(string(job.Kind), job.Hash)

		content, err := f.Fetch(ctx, job.Hash)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("metadata fetch failed, dropping job",
				"job", job.Token, "hash", job.Hash, "err", err)
			delete(r.pending, id)
			continue
		}

		fields := Parse(job.Hash, content)
		if err := r.store.Save(newRecord(job.Kind, job.Hash, fields)); err != nil {
			return err
		}

		delete(r.pending, id)
		r.done[id] = true
		slog.Debug("metadata resolved", "job", job.Token, "hash", job.Hash)
	}
	return nil
}

// Resolve materializes one hash's fields directly, bypassing the fetcher.
// The scenario harness uses this to inject metadata payloads.
func (r *Registry) Resolve(kind entities.Kind, hash string, content []byte) error {
	if err := r.store.Save(newRecord(kind, hash, Parse(hash, content))); err != nil {
		return err
	}
	id := jobID(string(kind), hash)
	delete(r.pending, id)
	r.done[id] = true
	return nil
}

// newRecord builds the typed metadata entity for a kind.
func newRecord(kind entities.Kind, hash string, fields Fields) entities.Entity {
	key := ids.Key(hash)
	switch kind {
	case entities.KindFulfillerMetadata:
		return &entities.FulfillerMetadata{ID: key, Title: fields.Title, Image: fields.Image, Link: fields.Link}
	case entities.KindSupplierMetadata:
		return &entities.SupplierMetadata{ID: key, Title: fields.Title, Image: fields.Image, Link: fields.Link}
	default:
		return &entities.Metadata{ID: key, Title: fields.Title, Image: fields.Image}
	}
}
