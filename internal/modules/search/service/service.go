package search

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/unicampus/portal/internal/entity"
)

// SearchService maintains the Meilisearch user directory. Clients query the
// "users" index directly with a scoped tenant token minted at login, so the
// backend only ever indexes and deletes documents.
type SearchService interface {
	IndexUser(user *entity.User) error
	DeleteUser(id string) error
	GenerateSearchToken(userRole string) (string, error)
}

type meiliSearchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &meiliSearchService{
		client:    client,
		masterKey: masterKey,
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"role"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("users").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update users filterable attributes: %v", err)
	}

	sortableAttrs := []string{"name"}
	if _, err := s.client.Index("users").UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update users sortable attributes: %v", err)
	}
}

func (s *meiliSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"users"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
}

type meiliUserDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

func (s *meiliSearchService) IndexUser(user *entity.User) error {
	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}

	doc := meiliUserDoc{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.Name,
		AvatarURL: avatar,
	}

	primaryKey := "id"
	_, err := s.client.Index("users").AddDocuments([]meiliUserDoc{doc}, &primaryKey)
	return err
}

func (s *meiliSearchService) DeleteUser(id string) error {
	_, err := s.client.Index("users").DeleteDocument(id)
	return err
}

func (s *meiliSearchService) GenerateSearchToken(userRole string) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	// Every role may search the whole directory.
	searchRules := map[string]any{
		"users": map[string]any{"filter": nil},
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}
