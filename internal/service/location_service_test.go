package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
)

func TestLocation_SaveTriggersGeofence(t *testing.T) {
	store := newMemStore()
	farther := store.addVendor(&model.VendorProfile{BusinessName: "Farther", Latitude: 48.8700, Longitude: 2.3600, IsVerified: true})
	nearest := store.addVendor(&model.VendorProfile{BusinessName: "Taco Truck", Latitude: 48.8570, Longitude: 2.3530, IsVerified: true})
	notifier := &recordingNotifier{}
	log, _ := test.NewNullLogger()
	svc := NewLocationService(store, notifier, 5, log)

	user := &model.User{ID: 4, Name: "Ada", Status: model.StatusActive}
	loc, err := svc.Save(context.Background(), user, LocationInput{
		Label: "Home", Address: "1 Rue de Rivoli", Latitude: 48.8566, Longitude: 2.3522, IsDefault: true,
	})
	require.NoError(t, err)
	assert.True(t, loc.IsDefault)

	require.Equal(t, 1, notifier.count())
	ev := notifier.last()
	assert.Equal(t, notification.VendorNearby, ev.Type)
	assert.Equal(t, nearest.ID, ev.Payload["vendor_id"])
	assert.NotEqual(t, farther.ID, ev.Payload["vendor_id"])
	assert.Equal(t, "Taco Truck is nearby", ev.Title)
	assert.Equal(t, user, ev.Target)
}

func TestLocation_NoVendorsNoNotification(t *testing.T) {
	store := newMemStore()
	store.addVendor(&model.VendorProfile{BusinessName: "Lyon", Latitude: 45.7640, Longitude: 4.8357, IsVerified: true})
	notifier := &recordingNotifier{}
	log, _ := test.NewNullLogger()
	svc := NewLocationService(store, notifier, 5, log)

	_, err := svc.Save(context.Background(), &model.User{ID: 4}, LocationInput{
		Label: "Home", Address: "1 Rue de Rivoli", Latitude: 48.8566, Longitude: 2.3522,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, notifier.count())

	list, err := svc.Locations(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLocation_Validation(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewLocationService(newMemStore(), &recordingNotifier{}, 5, log)

	_, err := svc.Save(context.Background(), &model.User{ID: 4}, LocationInput{Latitude: 100, Longitude: 200})

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"label", "address", "latitude", "longitude"} {
		assert.Contains(t, ve.Fields, field)
	}
}
