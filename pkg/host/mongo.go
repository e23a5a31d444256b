package host

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
)

// MongoConfig locates the collection holding canvas files.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoVault stores each file as a document keyed by its path.
type MongoVault struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoFile struct {
	Path      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	Size      int       `bson:"size"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoVault connects to MongoDB and checks the connection.
func NewMongoVault(ctx context.Context, cfg MongoConfig) (*MongoVault, error) {
	if cfg.URI == "" || cfg.Database == "" || cfg.Collection == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "mongo vault needs uri, database and collection")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoVault{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Read implements Vault.
func (v *MongoVault) Read(ctx context.Context, path string) ([]byte, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	var f mongoFile
	err := v.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f.Data, nil
}

// Write implements Vault.
func (v *MongoVault) Write(ctx context.Context, path string, data []byte) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	f := mongoFile{Path: path, Data: data, Size: len(data), UpdatedAt: time.Now().UTC()}
	_, err := v.coll.ReplaceOne(ctx, bson.M{"_id": path}, f, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Delete implements Vault.
func (v *MongoVault) Delete(ctx context.Context, path string) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	res, err := v.coll.DeleteOne(ctx, bson.M{"_id": path})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if res.DeletedCount == 0 {
		return notFound(path)
	}
	return nil
}

// List implements Vault.
func (v *MongoVault) List(ctx context.Context, prefix string) ([]string, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := v.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	var docs []struct {
		Path string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out, nil
}

// Close disconnects the client.
func (v *MongoVault) Close(ctx context.Context) error {
	return v.client.Disconnect(ctx)
}

var _ Vault = (*MongoVault)(nil)
