// ABOUTME: Cloud document store backend on Google Cloud Firestore
// ABOUTME: One document per key inside a configurable collection, JSON kept as a string field
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultFirestoreCollection holds CRM documents when no collection is configured.
const DefaultFirestoreCollection = "bizcrm"

const firestoreTimeout = 15 * time.Second

// Firestore stores each key as a document {value, updatedAt}.
type Firestore struct {
	client     *firestore.Client
	collection string
}

type firestoreRecord struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// OpenFirestore connects to projectID. Credentials come from the default
// Google chain unless opts override them; FIRESTORE_EMULATOR_HOST is honoured
// by the client library.
func OpenFirestore(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project ID required")
	}
	if collection == "" {
		collection = DefaultFirestoreCollection
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{client: client, collection: collection}, nil
}

func (f *Firestore) doc(key string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(key)
}

func (f *Firestore) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), firestoreTimeout)
	defer cancel()

	snap, err := f.doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec firestoreRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

// Set replaces the whole document; Firestore applies single-document writes atomically.
func (f *Firestore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), firestoreTimeout)
	defer cancel()

	_, err := f.doc(key).Set(ctx, firestoreRecord{
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	})
	return err
}

func (f *Firestore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), firestoreTimeout)
	defer cancel()

	_, err := f.doc(key).Delete(ctx)
	return err
}

func (f *Firestore) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), firestoreTimeout)
	defer cancel()

	iter := f.client.Collection(f.collection).Documents(ctx)
	defer iter.Stop()

	var keys []string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, snap.Ref.ID)
	}
	return keys, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
