package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"opportunity-agent/internal/domain/entity"
	"opportunity-agent/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const directoryCallTimeout = 10 * time.Second

// QdrantDirectory is the searchable catalog of teams/towers. Each point's
// payload carries the full DirectoryTeam record; the vector comes from the
// team's descriptive text.
type QdrantDirectory struct {
	client         *qdrant.Client
	collectionName string
	embedder       repository.Embedder
}

func NewQdrantDirectory(client *qdrant.Client, collectionName string, embedder repository.Embedder) *QdrantDirectory {
	return &QdrantDirectory{
		client:         client,
		collectionName: collectionName,
		embedder:       embedder,
	}
}

func (s *QdrantDirectory) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		log.Printf("[QDRANT] created directory collection %q (dim=%d)", s.collectionName, dim)
	}
	return nil
}

// SearchTeams embeds the query and returns the top teams by vector
// similarity. Errors surface to the caller; the orchestrator decides whether
// they are fatal.
func (s *QdrantDirectory) SearchTeams(ctx context.Context, query string, top int) ([]entity.DirectoryTeam, error) {
	vector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory query embedding failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, directoryCallTimeout)
	defer cancel()

	res, err := s.client.Query(callCtx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(top)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}

	teams := make([]entity.DirectoryTeam, 0, len(res))
	for _, hit := range res {
		teams = append(teams, teamFromPayload(hit.Payload))
	}
	return teams, nil
}

// AllTeams scrolls every record in the collection. Used as the fallback when
// a search yields nothing, so the pipeline is never starved of candidates.
func (s *QdrantDirectory) AllTeams(ctx context.Context) ([]entity.DirectoryTeam, error) {
	callCtx, cancel := context.WithTimeout(ctx, directoryCallTimeout)
	defer cancel()

	res, err := s.client.Scroll(callCtx, &qdrant.ScrollPoints{
		CollectionName: s.collectionName,
		Limit:          qdrant.PtrOf(uint32(256)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("directory scroll failed: %w", err)
	}

	teams := make([]entity.DirectoryTeam, 0, len(res))
	for _, point := range res {
		teams = append(teams, teamFromPayload(point.Payload))
	}
	return teams, nil
}

// UpsertTeam embeds the team's descriptive text and writes the record.
// Used by the seeding tool, not by the request pipeline.
func (s *QdrantDirectory) UpsertTeam(ctx context.Context, team entity.DirectoryTeam) error {
	text := fmt.Sprintf("%s (%s). Skills: %v. %s", team.Name, team.Tower, team.Skills, team.Description)
	vector, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("team embedding failed: %w", err)
	}

	skills := make([]any, len(team.Skills))
	for i, skill := range team.Skills {
		skills[i] = skill
	}

	pointID := team.ID
	if pointID == "" {
		pointID = uuid.NewString()
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(pointID),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"id":           pointID,
					"name":         team.Name,
					"tower":        team.Tower,
					"leader":       team.Leader,
					"leader_email": team.LeaderEmail,
					"skills":       skills,
					"description":  team.Description,
				}),
			},
		},
	})
	return err
}

func teamFromPayload(payload map[string]*qdrant.Value) entity.DirectoryTeam {
	team := entity.DirectoryTeam{
		ID:          payload["id"].GetStringValue(),
		Name:        payload["name"].GetStringValue(),
		Tower:       payload["tower"].GetStringValue(),
		Leader:      payload["leader"].GetStringValue(),
		LeaderEmail: payload["leader_email"].GetStringValue(),
		Description: payload["description"].GetStringValue(),
	}
	for _, v := range payload["skills"].GetListValue().GetValues() {
		if s := v.GetStringValue(); s != "" {
			team.Skills = append(team.Skills, s)
		}
	}
	return team
}
