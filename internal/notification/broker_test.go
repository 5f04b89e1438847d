package notification

import (
	"context"
	"testing"

	"ottobite-backend/internal/database/dbtest"
	"ottobite-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPersistsThenPublishes(t *testing.T) {
	db := dbtest.New(t)
	bus := NewLocalBus(8, nil)
	sub := bus.Subscribe(nil)
	broker := NewBroker(db, bus, nil)

	res := broker.Notify(context.Background(), "ORDER_CREATED", "Yeni sipariş: Haftalık", "Ayşe", Options{
		Link: "/dashboard/orders",
		Role: "CHEF",
	})
	assert.Equal(t, Result{Persisted: true}, res)

	// Bus kuyruğa senkron yazar; Notify döndüğünde olay abonede hazır
	require.Len(t, sub.C(), 1)
	e := <-sub.C()
	assert.Equal(t, SourceNotification, e.Source)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "ORDER_CREATED", e.Type)
	assert.Equal(t, models.PriorityInfo, e.Priority)
	require.NotNil(t, e.Role)
	assert.Equal(t, "CHEF", *e.Role)

	var row models.Notification
	require.NoError(t, db.First(&row, e.ID).Error)
	assert.Equal(t, "Ayşe", row.UserName)
	assert.Equal(t, "/dashboard/orders", *row.Link)
	assert.Nil(t, row.Department)
	assert.Nil(t, row.UserID)
}

func TestBrokerDefaults(t *testing.T) {
	db := dbtest.New(t)
	broker := NewBroker(db, NewLocalBus(1, nil), nil)

	broker.Notify(context.Background(), "INFO", "Merhaba", "  ", Options{})

	var row models.Notification
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, SystemActor, row.UserName)
	assert.Equal(t, models.PriorityInfo, row.Priority)
}

func TestBrokerFallsBackWhenNotificationStoreFails(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	bus := NewLocalBus(8, nil)
	sub := bus.Subscribe(nil)
	broker := NewBroker(db, bus, nil)

	res := broker.Notify(context.Background(), "", "Depo güncellendi", "Mehmet", Options{Priority: models.PriorityHigh})
	assert.Equal(t, Result{Degraded: true}, res)

	var fallback models.OrderNotification
	require.NoError(t, db.First(&fallback).Error)
	assert.Equal(t, "INFO", fallback.Type)
	assert.Equal(t, "Depo güncellendi", fallback.Content)
	assert.Equal(t, "Mehmet", fallback.UserName)

	e := <-sub.C()
	assert.Equal(t, SourceOrder, e.Source)
	assert.Equal(t, fallback.ID, e.ID)
	assert.Equal(t, models.PriorityHigh, e.Priority)
}

func TestBrokerStillPublishesWhenEveryStoreFails(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}, &models.OrderNotification{}))

	bus := NewLocalBus(8, nil)
	sub := bus.Subscribe(nil)
	broker := NewBroker(db, bus, nil)

	res := broker.Notify(context.Background(), "ORDER_CREATED", "x", "", Options{})
	assert.Equal(t, Result{}, res)

	e := <-sub.C()
	assert.Equal(t, "ORDER_CREATED", e.Type)
	assert.Zero(t, e.ID)
}

func TestBrokerIgnoresClosedBus(t *testing.T) {
	db := dbtest.New(t)
	bus := NewLocalBus(1, nil)
	require.NoError(t, bus.Close())

	res := NewBroker(db, bus, nil).Notify(context.Background(), "ORDER_CREATED", "x", "", Options{})
	assert.True(t, res.Persisted)
}
