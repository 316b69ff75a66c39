package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"PropertySearchSys/models"
	"PropertySearchSys/store"
)

type favKey struct {
	user     primitive.ObjectID
	property primitive.ObjectID
}

// fakeStore keeps counters and favorite links in memory and can be told to
// fail every write.
type fakeStore struct {
	properties map[string]bool
	counters   map[string]map[string]int
	favorites  map[favKey]bool
	contacts   []models.ContactEvent

	contactedCalls int
	failWrites     bool
}

func newFakeStore(propertyIDs ...string) *fakeStore {
	fs := &fakeStore{
		properties: map[string]bool{},
		counters:   map[string]map[string]int{},
		favorites:  map[favKey]bool{},
	}
	for _, id := range propertyIDs {
		fs.properties[id] = true
		fs.counters[id] = map[string]int{}
	}
	return fs
}

func (f *fakeStore) IncrementCounter(_ context.Context, propertyID, field string, delta int) error {
	if f.failWrites {
		return errors.New("write failed")
	}
	if !f.properties[propertyID] {
		return models.ErrNotFound
	}
	f.counters[propertyID][field] += delta
	return nil
}

func (f *fakeStore) PropertyExists(_ context.Context, propertyID string) (bool, error) {
	return f.properties[propertyID], nil
}

func (f *fakeStore) FavoriteExists(_ context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	return f.favorites[favKey{userID, propertyID}], nil
}

func (f *fakeStore) InsertFavorite(_ context.Context, userID, propertyID primitive.ObjectID) error {
	if f.failWrites {
		return errors.New("write failed")
	}
	key := favKey{userID, propertyID}
	if f.favorites[key] {
		return models.ErrConflict
	}
	f.favorites[key] = true
	return nil
}

func (f *fakeStore) DeleteFavorite(_ context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	key := favKey{userID, propertyID}
	if !f.favorites[key] {
		return false, nil
	}
	delete(f.favorites, key)
	return true, nil
}

func (f *fakeStore) FavoritesByUser(_ context.Context, userID primitive.ObjectID) ([]models.Favorite, error) {
	var out []models.Favorite
	for key := range f.favorites {
		if key.user == userID {
			out = append(out, models.Favorite{UserID: key.user, PropertyID: key.property})
		}
	}
	return out, nil
}

func (f *fakeStore) PropertiesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	var out []models.Property
	for _, id := range ids {
		if f.properties[id.Hex()] {
			out = append(out, models.Property{ID: id})
		}
	}
	return out, nil
}

func (f *fakeStore) ContactedPropertyIDs(_ context.Context, userID string, propertyIDs []string) (map[string]bool, error) {
	f.contactedCalls++
	contacted := map[string]bool{}
	for _, c := range f.contacts {
		if c.UserID == userID && c.Success {
			contacted[c.PropertyID] = true
		}
	}
	return contacted, nil
}

func (f *fakeStore) InsertContact(_ context.Context, event models.ContactEvent) error {
	if f.failWrites {
		return errors.New("write failed")
	}
	f.contacts = append(f.contacts, event)
	return nil
}

func TestToggleFavoriteRoundTripIsNetZero(t *testing.T) {
	propertyID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	svc := NewService(fs, nil)

	favorited, err := svc.ToggleFavorite(context.Background(), userID, propertyID)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, 1, fs.counters[propertyID.Hex()][store.CounterFavorites])

	favorited, err = svc.ToggleFavorite(context.Background(), userID, propertyID)
	require.NoError(t, err)
	assert.False(t, favorited, "second toggle restores the original state")
	assert.Equal(t, 0, fs.counters[propertyID.Hex()][store.CounterFavorites],
		"a toggle pair leaves the counter where it started")
	assert.Empty(t, fs.favorites)
}

func TestToggleFavoriteUnknownProperty(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, nil)

	_, err := svc.ToggleFavorite(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleFavoriteDuplicateInsertIsConflict(t *testing.T) {
	propertyID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	// Simulate a concurrent duplicate: the link appears between the
	// existence check and the insert.
	fs.favorites[favKey{userID, propertyID}] = true

	svc := NewService(&racingStore{fakeStore: fs}, nil)
	_, err := svc.ToggleFavorite(context.Background(), userID, propertyID)
	assert.ErrorIs(t, err, models.ErrConflict)
}

// racingStore reports the favorite as absent so the service takes the
// insert path and trips the unique-index conflict.
type racingStore struct {
	*fakeStore
}

func (r *racingStore) FavoriteExists(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}

func TestContactCounterGating(t *testing.T) {
	propertyID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	svc := NewService(fs, nil)

	svc.TrackContact(context.Background(), propertyID.Hex(), "", models.ContactMethodWhatsApp, false)
	assert.Equal(t, 0, fs.counters[propertyID.Hex()][store.CounterContacts],
		"failed contact attempts must not inflate the counter")
	assert.Len(t, fs.contacts, 1, "the attempt itself is still recorded")

	svc.TrackContact(context.Background(), propertyID.Hex(), "", models.ContactMethodWhatsApp, true)
	assert.Equal(t, 1, fs.counters[propertyID.Hex()][store.CounterContacts])
	assert.Len(t, fs.contacts, 2)
}

func TestTrackViewIncrements(t *testing.T) {
	propertyID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	svc := NewService(fs, nil)

	svc.TrackView(context.Background(), propertyID.Hex())
	svc.TrackView(context.Background(), propertyID.Hex())
	assert.Equal(t, 2, fs.counters[propertyID.Hex()][store.CounterViews])
}

func TestTrackingSwallowsStoreFailures(t *testing.T) {
	propertyID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	fs.failWrites = true
	svc := NewService(fs, nil)

	// Neither call may panic or surface the failure.
	svc.TrackView(context.Background(), propertyID.Hex())
	svc.TrackContact(context.Background(), propertyID.Hex(), "", models.ContactMethodPhone, true)
	assert.Equal(t, 0, fs.counters[propertyID.Hex()][store.CounterViews])
	assert.Equal(t, 0, fs.counters[propertyID.Hex()][store.CounterContacts])
}

// failingPublisher always errors, forcing the direct-apply fallback.
type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, models.EngagementEvent) error {
	return errors.New("broker down")
}

func TestRecordFallsBackWhenPublishFails(t *testing.T) {
	propertyID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	svc := NewService(fs, failingPublisher{})

	svc.TrackView(context.Background(), propertyID.Hex())
	assert.Equal(t, 1, fs.counters[propertyID.Hex()][store.CounterViews],
		"a dead broker degrades to direct counter writes")
}

func TestApplyContactEvent(t *testing.T) {
	propertyID := primitive.NewObjectID()
	fs := newFakeStore(propertyID.Hex())
	svc := NewService(fs, nil)

	err := svc.Apply(context.Background(), models.EngagementEvent{
		ID:         "evt-1",
		Type:       models.EventContact,
		PropertyID: propertyID.Hex(),
		Contact: &models.ContactEvent{
			ID: "evt-1", PropertyID: propertyID.Hex(), Method: models.ContactMethodEmail, Success: true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fs.counters[propertyID.Hex()][store.CounterContacts])

	err = svc.Apply(context.Background(), models.EngagementEvent{Type: "unknown"})
	assert.Error(t, err)
}

func TestListFavoritesBatchesContactedLookup(t *testing.T) {
	userID := primitive.NewObjectID()
	p1, p2, p3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	fs := newFakeStore(p1.Hex(), p2.Hex(), p3.Hex())
	svc := NewService(fs, nil)

	for _, pid := range []primitive.ObjectID{p1, p2, p3} {
		_, err := svc.ToggleFavorite(context.Background(), userID, pid)
		require.NoError(t, err)
	}
	fs.contacts = append(fs.contacts, models.ContactEvent{
		UserID: userID.Hex(), PropertyID: p2.Hex(), Success: true,
	})

	items, err := svc.ListFavorites(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 1, fs.contactedCalls, "one contacted query for the whole favorite set")

	contacted := 0
	for _, item := range items {
		if item.Contacted {
			contacted++
			assert.Equal(t, p2, item.Property.ID)
		}
	}
	assert.Equal(t, 1, contacted)
}
