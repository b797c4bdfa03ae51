package Models

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection matches the collection name the station has used since
// the first deployment.
const DefaultCollection = "cottonEntries"

// FirestoreStore keys each entry document directly by its token number,
// which makes duplicate tokens structurally impossible for new records.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *FirestoreStore) Put(ctx context.Context, entry CottonEntry) error {
	if _, err := s.col().Doc(entry.TokenNo).Set(ctx, entry); err != nil {
		return fmt.Errorf("firestore put %s: %w", entry.TokenNo, err)
	}
	return nil
}

func (s *FirestoreStore) Merge(ctx context.Context, tokenNo string, fields map[string]interface{}) error {
	fields["lastUpdatedAt"] = firestore.ServerTimestamp
	if _, err := s.col().Doc(tokenNo).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore merge %s: %w", tokenNo, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, tokenNo string) (CottonEntry, error) {
	snap, err := s.col().Doc(tokenNo).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return CottonEntry{}, ErrNotFound
	}
	if err != nil {
		return CottonEntry{}, fmt.Errorf("firestore get %s: %w", tokenNo, err)
	}
	var entry CottonEntry
	if err := snap.DataTo(&entry); err != nil {
		return CottonEntry{}, fmt.Errorf("firestore decode %s: %w", tokenNo, err)
	}
	return entry, nil
}

func (s *FirestoreStore) QueryByToken(ctx context.Context, tokenNo string) ([]CottonEntry, error) {
	snaps, err := s.col().Where("tokenNo", "==", tokenNo).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore query token %s: %w", tokenNo, err)
	}
	entries := make([]CottonEntry, 0, len(snaps))
	for _, snap := range snaps {
		var entry CottonEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("firestore decode %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FirestoreStore) All(ctx context.Context) ([]CottonEntry, error) {
	snaps, err := s.col().OrderBy("itemName", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore fetch all: %w", err)
	}
	entries := make([]CottonEntry, 0, len(snaps))
	for _, snap := range snaps {
		var entry CottonEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("firestore decode %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FirestoreStore) Watch(ctx context.Context, limit int, fn func([]CottonEntry)) error {
	query := s.col().OrderBy("lastUpdatedAt", firestore.Desc).Limit(limit)
	iter := query.Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("firestore watch: %w", err)
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("firestore watch read: %w", err)
		}
		entries := make([]CottonEntry, 0, len(docs))
		for _, doc := range docs {
			var entry CottonEntry
			if err := doc.DataTo(&entry); err != nil {
				return fmt.Errorf("firestore decode %s: %w", doc.Ref.ID, err)
			}
			entries = append(entries, entry)
		}
		fn(entries)
	}
}
