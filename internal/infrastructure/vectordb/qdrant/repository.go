// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
	"github.com/ersonp/mythos/internal/infrastructure/config"
)

// pointNamespace seeds the name-based UUIDs used as point ids, so re-syncing
// an entity overwrites its point.
var pointNamespace = uuid.MustParse("6f1c9a4e-2b7d-4f0a-9c53-8e2d1b7a4c60")

// Payload keys.
const (
	payloadEntityID    = "entity_id"
	payloadName        = "name"
	payloadType        = "type"
	payloadMythology   = "mythology"
	payloadMythologies = "mythologies"
)

// Ensure Repository implements the vector store interfaces.
var (
	_ ports.VectorDB          = (*Repository)(nil)
	_ ports.CollectionManager = (*Repository)(nil)
)

// Repository implements the VectorDB interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor adds the api-key header Qdrant expects on every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Collection returns the collection name.
func (r *Repository) Collection() string {
	return r.collection
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its vectors.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// SaveBatch upserts entity vectors.
func (r *Repository) SaveBatch(ctx context.Context, vectors []entities.EntityVector) error {
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(vectors))
	for _, v := range vectors {
		points = append(points, toPoint(v))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search returns the entities closest to the embedding.
func (r *Repository) Search(ctx context.Context, embedding []float32, filter ports.VectorFilter, limit int) ([]entities.VectorHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         buildFilter(filter),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToHits(resp.Result), nil
}

// Delete removes the vector of one entity.
func (r *Repository) Delete(ctx context.Context, entityID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pointID(entityID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// Count returns the total number of stored vectors.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// PointID returns the point id used for an entity.
func PointID(entityID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(entityID)).String()
}

func pointID(entityID string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(entityID)}}
}

// toPoint converts an entity vector to a Qdrant point. The primary
// mythology is stored in the mythologies list too so one filter covers both.
func toPoint(v entities.EntityVector) *pb.PointStruct {
	myths := make([]*pb.Value, 0, len(v.Mythologies)+1)
	seen := make(map[string]bool)
	for _, m := range append([]string{v.Mythology}, v.Mythologies...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		myths = append(myths, stringValue(m))
	}

	return &pb.PointStruct{
		Id: pointID(v.EntityID),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: v.Embedding,
				},
			},
		},
		Payload: map[string]*pb.Value{
			payloadEntityID:  stringValue(v.EntityID),
			payloadName:      stringValue(v.Name),
			payloadType:      stringValue(v.Type),
			payloadMythology: stringValue(v.Mythology),
			payloadMythologies: {Kind: &pb.Value_ListValue{
				ListValue: &pb.ListValue{Values: myths},
			}},
		},
	}
}

// buildFilter turns a VectorFilter into Qdrant conditions. Returns nil when
// the filter is empty.
func buildFilter(f ports.VectorFilter) *pb.Filter {
	var must []*pb.Condition
	if f.Mythology != "" {
		must = append(must, keywordCondition(payloadMythologies, f.Mythology))
	}
	if f.Type != "" {
		must = append(must, keywordCondition(payloadType, f.Type))
	}
	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

func keywordCondition(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{
						Keyword: value,
					},
				},
			},
		},
	}
}

// scoredPointsToHits converts scored points to vector hits.
func scoredPointsToHits(points []*pb.ScoredPoint) []entities.VectorHit {
	hits := make([]entities.VectorHit, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		hits = append(hits, entities.VectorHit{
			EntityID:  getStringValue(payload, payloadEntityID),
			Name:      getStringValue(payload, payloadName),
			Type:      getStringValue(payload, payloadType),
			Mythology: getStringValue(payload, payloadMythology),
			Score:     point.Score,
		})
	}
	return hits
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
