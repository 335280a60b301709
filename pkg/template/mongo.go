package template

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "coverkit"
	DefaultMongoCollection = "templates"
)

// mongoRecord is one stored template. The template key is the document _id.
type mongoRecord struct {
	ID        string    `bson:"_id"`
	Document  Document  `bson:"document"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newMongoRecord(d *Definition, now time.Time) mongoRecord {
	return mongoRecord{ID: d.Key, Document: Encode(d), UpdatedAt: now.UTC()}
}

func (r mongoRecord) definition() (*Definition, error) {
	def, _, err := r.Document.Definition()
	if err != nil {
		return nil, err
	}
	def.Key = r.ID
	return def, nil
}

// MongoStore keeps templates in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (*Definition, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		keys, kerr := s.Keys(ctx)
		if kerr != nil {
			keys = nil
		}
		return nil, NotFound(key, keys)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load template %q", key)
	}
	return rec.definition()
}

func (s *MongoStore) List(ctx context.Context) ([]*Definition, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}
	defer cur.Close(ctx)

	var out []*Definition
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode template")
		}
		def, err := rec.definition()
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}
	return out, nil
}

func (s *MongoStore) Keys(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list template keys")
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var rec struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode template key")
		}
		keys = append(keys, rec.ID)
	}
	return keys, cur.Err()
}

func (s *MongoStore) Save(ctx context.Context, d *Definition) error {
	if err := Validate(d); err != nil {
		return err
	}
	rec := newMongoRecord(d, time.Now())
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.Key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save template %q", d.Key)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
