package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"

	"doclookup/internal/domain"
)

type qdrantPoints interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type qdrantCollections interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// QdrantDescriptor is what QdrantIndex.Save writes in place of vectors: the
// vectors themselves live in the qdrant collection.
type QdrantDescriptor struct {
	Backend    string `yaml:"backend"`
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
	Count      int    `yaml:"count"`
	BuildID    string `yaml:"build_id,omitempty"`
	Model      string `yaml:"model,omitempty"`
}

// QdrantIndex keeps vectors in a qdrant collection with Euclid distance and
// searches it exactly. Point ids are the ordinals.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      qdrantPoints
	collections qdrantCollections
	addr        string
	collection  string
	dimension   int
	count       int
	timeout     time.Duration
	Info        IndexInfo
}

// NewQdrantIndex connects to qdrant at addr. The collection is not touched
// until Reset or Add.
func NewQdrantIndex(addr, collection string, dimension int, timeout time.Duration) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}
	q := newQdrantIndex(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection, dimension, timeout)
	q.conn = conn
	q.addr = addr
	return q, nil
}

func newQdrantIndex(points qdrantPoints, collections qdrantCollections, collection string, dimension int, timeout time.Duration) *QdrantIndex {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QdrantIndex{
		points:      points,
		collections: collections,
		collection:  collection,
		dimension:   dimension,
		timeout:     timeout,
	}
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// Reset drops the collection if it exists and recreates it empty.
func (q *QdrantIndex) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			if _, err := q.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: q.collection}); err != nil {
				return fmt.Errorf("qdrant: delete collection %s: %w", q.collection, err)
			}
			break
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(q.dimension),
					Distance: pb.Distance_Euclid,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", q.collection, err)
	}
	q.count = 0
	return nil
}

func (q *QdrantIndex) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(vectors))
	for i, v := range vectors {
		if len(v) != q.dimension {
			return fmt.Errorf("vector %d dimension mismatch: expected %d, got %d", i, q.dimension, len(v))
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Num{Num: uint64(q.count + i)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: v},
				},
			},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
	}
	q.count += len(vectors)
	return nil
}

// Search returns squared L2 distances so results compare with FlatIndex.
func (q *QdrantIndex) Search(query []float32, k int) ([]domain.Neighbor, error) {
	if q.count == 0 {
		return nil, nil
	}
	if len(query) != q.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", q.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	exact := true
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         query,
		Limit:          uint64(k),
		Params:         &pb.SearchParams{Exact: &exact},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	neighbors := make([]domain.Neighbor, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		d := r.GetScore()
		neighbors = append(neighbors, domain.Neighbor{
			Ordinal:  int(r.GetId().GetNum()),
			Distance: d * d,
		})
	}
	return neighbors, nil
}

func (q *QdrantIndex) Len() int {
	return q.count
}

func (q *QdrantIndex) Dimension() int {
	return q.dimension
}

// Save writes a descriptor that LoadQdrantIndex uses to reconnect.
func (q *QdrantIndex) Save(path string) error {
	desc := QdrantDescriptor{
		Backend:    "qdrant",
		Addr:       q.addr,
		Collection: q.collection,
		Dimension:  q.dimension,
		Count:      q.count,
		BuildID:    q.Info.BuildID,
		Model:      q.Info.Model,
	}
	data, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("qdrant: marshal descriptor: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadQdrantDescriptor parses a descriptor written by QdrantIndex.Save.
func ReadQdrantDescriptor(path string) (*QdrantDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("index not found: %w", err)
	}
	var desc QdrantDescriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("qdrant: parse descriptor: %w", err)
	}
	if desc.Backend != "qdrant" {
		return nil, fmt.Errorf("qdrant: %s is not a qdrant descriptor", path)
	}
	return &desc, nil
}

// LoadQdrantIndex reconnects to the collection named in a descriptor.
func LoadQdrantIndex(path string, timeout time.Duration) (*QdrantIndex, error) {
	desc, err := ReadQdrantDescriptor(path)
	if err != nil {
		return nil, err
	}
	q, err := NewQdrantIndex(desc.Addr, desc.Collection, desc.Dimension, timeout)
	if err != nil {
		return nil, err
	}
	q.count = desc.Count
	q.Info = IndexInfo{BuildID: desc.BuildID, Model: desc.Model}
	return q, nil
}
