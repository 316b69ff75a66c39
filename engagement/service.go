package engagement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"PropertySearchSys/models"
	"PropertySearchSys/store"
)

// Store is the slice of the external store the engagement service needs.
type Store interface {
	IncrementCounter(ctx context.Context, propertyID string, field string, delta int) error
	PropertyExists(ctx context.Context, propertyID string) (bool, error)
	FavoriteExists(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error)
	InsertFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) error
	DeleteFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error)
	FavoritesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Favorite, error)
	PropertiesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error)
	ContactedPropertyIDs(ctx context.Context, userID string, propertyIDs []string) (map[string]bool, error)
	InsertContact(ctx context.Context, event models.ContactEvent) error
}

// Publisher hands engagement events to the queue. Nil means events are
// applied directly against the store.
type Publisher interface {
	Publish(ctx context.Context, event models.EngagementEvent) error
}

// Service records view/contact/favorite engagement. View and contact
// tracking are fire-and-forget: their failures are logged, never surfaced,
// and never block the user-visible flow they hang off of.
type Service struct {
	store Store
	pub   Publisher
}

func NewService(store Store, pub Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// TrackView records a property detail open.
func (s *Service) TrackView(ctx context.Context, propertyID string) {
	s.record(ctx, models.EngagementEvent{
		ID:         uuid.NewString(),
		Type:       models.EventView,
		PropertyID: propertyID,
		At:         time.Now(),
	})
}

// TrackContact records a contact attempt. The contact counter only moves
// when the attempt succeeded; failed attempts are stored but not counted.
func (s *Service) TrackContact(ctx context.Context, propertyID, userID, method string, success bool) {
	id := uuid.NewString()
	s.record(ctx, models.EngagementEvent{
		ID:         id,
		Type:       models.EventContact,
		PropertyID: propertyID,
		At:         time.Now(),
		Contact: &models.ContactEvent{
			ID:         id,
			PropertyID: propertyID,
			UserID:     userID,
			Method:     method,
			Success:    success,
			CreatedAt:  time.Now(),
		},
	})
}

// record publishes the event, falling back to a direct apply when there is
// no queue or the publish fails. Either way errors stop here.
func (s *Service) record(ctx context.Context, event models.EngagementEvent) {
	ctx = context.WithoutCancel(ctx)
	if s.pub != nil {
		err := s.pub.Publish(ctx, event)
		if err == nil {
			return
		}
		log.Printf("engagement: publish %s event failed, applying directly: %v", event.Type, err)
	}
	if err := s.Apply(ctx, event); err != nil {
		log.Printf("engagement: %s event for %s dropped: %v", event.Type, event.PropertyID, err)
	}
}

// Apply executes one engagement event against the store. It is shared by
// the direct path and the queue consumer.
func (s *Service) Apply(ctx context.Context, event models.EngagementEvent) error {
	switch event.Type {
	case models.EventView:
		return s.store.IncrementCounter(ctx, event.PropertyID, store.CounterViews, 1)
	case models.EventContact:
		if event.Contact == nil {
			return fmt.Errorf("contact event %s without payload", event.ID)
		}
		if err := s.store.InsertContact(ctx, *event.Contact); err != nil {
			return err
		}
		if !event.Contact.Success {
			return nil
		}
		return s.store.IncrementCounter(ctx, event.PropertyID, store.CounterContacts, 1)
	default:
		return fmt.Errorf("unknown engagement event type %q", event.Type)
	}
}

// ToggleFavorite flips the favorited state for (user, property) and moves
// the favorite counter by an atomic delta. A concurrent duplicate toggle
// surfaces as models.ErrConflict rather than a silent duplicate record.
func (s *Service) ToggleFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	exists, err := s.store.PropertyExists(ctx, propertyID.Hex())
	if err != nil {
		return false, err
	}
	if !exists {
		return false, models.ErrNotFound
	}

	favorited, err := s.store.FavoriteExists(ctx, userID, propertyID)
	if err != nil {
		return false, err
	}

	if favorited {
		deleted, err := s.store.DeleteFavorite(ctx, userID, propertyID)
		if err != nil {
			return false, err
		}
		if deleted {
			if err := s.store.IncrementCounter(ctx, propertyID.Hex(), store.CounterFavorites, -1); err != nil {
				log.Printf("engagement: favorite decrement for %s failed: %v", propertyID.Hex(), err)
			}
		}
		return false, nil
	}

	if err := s.store.InsertFavorite(ctx, userID, propertyID); err != nil {
		return false, err
	}
	if err := s.store.IncrementCounter(ctx, propertyID.Hex(), store.CounterFavorites, 1); err != nil {
		log.Printf("engagement: favorite increment for %s failed: %v", propertyID.Hex(), err)
	}
	return true, nil
}

// ListFavorites returns the user's favorites with property snapshots and a
// contacted flag. The contacted lookup is batched over the whole id set.
func (s *Service) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.FavoriteItem, error) {
	favorites, err := s.store.FavoritesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return []models.FavoriteItem{}, nil
	}

	ids := make([]primitive.ObjectID, len(favorites))
	hexIDs := make([]string, len(favorites))
	for i, f := range favorites {
		ids[i] = f.PropertyID
		hexIDs[i] = f.PropertyID.Hex()
	}

	props, err := s.store.PropertiesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	contacted, err := s.store.ContactedPropertyIDs(ctx, userID.Hex(), hexIDs)
	if err != nil {
		// Contacted is an enhancement on the favorites page, not the page
		// itself; degrade to all-false.
		log.Printf("engagement: contacted lookup for %s failed: %v", userID.Hex(), err)
		contacted = map[string]bool{}
	}

	items := make([]models.FavoriteItem, 0, len(favorites))
	for _, f := range favorites {
		prop, ok := byID[f.PropertyID]
		if !ok {
			// Property deleted since it was favorited; the link is stale.
			continue
		}
		items = append(items, models.FavoriteItem{
			Property:    prop,
			FavoritedAt: f.CreatedAt,
			Contacted:   contacted[f.PropertyID.Hex()],
		})
	}
	return items, nil
}
