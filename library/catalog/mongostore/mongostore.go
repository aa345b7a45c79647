// Package mongostore stores books and users in MongoDB.
//
// Integer ids are drawn from a counters collection so that book ids stay
// compatible with the event ledger, which is keyed by book id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

const (
	collectionBooks    = "books"
	collectionUsers    = "users"
	collectionCounters = "counters"

	logMsgStorageFailed = "mongo store operation failed"
	logAttrError        = "error"
	logAttrOperation    = "operation"
)

// Store implements catalog.Store and users.Store.
type Store struct {
	client   *mongo.Client
	books    *mongo.Collection
	users    *mongo.Collection
	counters *mongo.Collection
	logger   shell.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger logs failed operations at error level.
func WithLogger(logger shell.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Connect dials uri, ensures the indexes of database dbName and returns a Store that owns the client.
func Connect(ctx context.Context, uri, dbName string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Join(core.ErrStorage, fmt.Errorf("connect to mongo: %w", err))
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Join(core.ErrStorage, fmt.Errorf("ping mongo: %w", err))
	}

	s := New(client.Database(dbName), opts...)
	s.client = client

	if err = s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

// New uses db without taking ownership of its client.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		books:    db.Collection(collectionBooks),
		users:    db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureIndexes creates the unique username index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return s.storageFailed("ensure indexes", err)
	}

	return nil
}

// Close disconnects the client if the Store owns one.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	return s.client.Disconnect(ctx)
}

func (s *Store) Add(ctx context.Context, book core.NewBook) (core.BookID, error) {
	id, err := s.nextID(ctx, collectionBooks)
	if err != nil {
		return 0, err
	}

	if _, err = s.books.InsertOne(ctx, book.ToBook(id)); err != nil {
		return 0, s.storageFailed("insert book", err)
	}

	return id, nil
}

func (s *Store) List(ctx context.Context, filter string) ([]core.Book, error) {
	cursor, err := s.books.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, s.storageFailed("find books", err)
	}

	books := make([]core.Book, 0)
	if err = cursor.All(ctx, &books); err != nil {
		return nil, s.storageFailed("decode books", err)
	}

	return slices.DeleteFunc(books, func(b core.Book) bool { return !b.Matches(filter) }), nil
}

func (s *Store) Get(ctx context.Context, id core.BookID) (core.Book, error) {
	var book core.Book

	err := s.books.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Book{}, catalog.NotFoundError(id)
	}

	if err != nil {
		return core.Book{}, s.storageFailed("find book", err)
	}

	return book, nil
}

func (s *Store) Update(ctx context.Context, id core.BookID, patch core.BookPatch) (core.Book, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return core.Book{}, err
	}

	updated, err := current.Apply(patch)
	if err != nil {
		return core.Book{}, err
	}

	result, err := s.books.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, updated)
	if err != nil {
		return core.Book{}, s.storageFailed("replace book", err)
	}

	if result.MatchedCount == 0 {
		return core.Book{}, catalog.NotFoundError(id)
	}

	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id core.BookID) error {
	result, err := s.books.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return s.storageFailed("delete book", err)
	}

	if result.DeletedCount == 0 {
		return catalog.NotFoundError(id)
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user core.User) (core.User, error) {
	id, err := s.nextID(ctx, collectionUsers)
	if err != nil {
		return core.User{}, err
	}

	user.ID = id

	if _, err = s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, users.DuplicateError(user.Username)
		}

		return core.User{}, s.storageFailed("insert user", err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, username core.UsernameString) (core.User, error) {
	var user core.User

	err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, users.NotFoundError(username)
	}

	if err != nil {
		return core.User{}, s.storageFailed("find user", err)
	}

	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, s.storageFailed("find users", err)
	}

	list := make([]core.User, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, s.storageFailed("decode users", err)
	}

	return list, nil
}

type counter struct {
	Seq int `bson:"seq"`
}

func (s *Store) nextID(ctx context.Context, name string) (int, error) {
	var c counter

	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: name}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, s.storageFailed("next id", err)
	}

	return c.Seq, nil
}

func (s *Store) storageFailed(operation string, err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgStorageFailed, logAttrOperation, operation, logAttrError, err.Error())
	}

	return errors.Join(core.ErrStorage, err)
}
