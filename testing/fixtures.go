// Package testing provides test utilities and database setup for testing the campaign engine
package testing

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates an active dealership account
func (tf *TestFixtures) CreateTestCustomer() (*models.Customer, error) {
	suffix := rand.Intn(10000000)

	customer := &models.Customer{
		UUID:           uuid.New(),
		DealershipName: fmt.Sprintf("Test Motors %d", suffix),
		ContactEmail:   fmt.Sprintf("owner.%d@example.com", suffix),
		IsActive:       utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestIntegration creates a connected ad platform account for a customer.
// The stored token is an opaque placeholder; credential round-trip behavior is
// covered by the credential service tests.
func (tf *TestFixtures) CreateTestIntegration(customerID uint, encryptedToken string) (*models.Integration, error) {
	if encryptedToken == "" {
		encryptedToken = base64.StdEncoding.EncodeToString([]byte("test-ciphertext"))
	}

	integration := &models.Integration{
		CustomerID:     customerID,
		Provider:       models.IntegrationProviderMeta,
		AdAccountID:    fmt.Sprintf("act_%d", rand.Intn(10000000)),
		PageID:         fmt.Sprintf("%d", rand.Intn(10000000)),
		EncryptedToken: encryptedToken,
		Active:         true,
	}

	if err := tf.DB.DB.Create(integration).Error; err != nil {
		return nil, fmt.Errorf("failed to create test integration: %w", err)
	}

	return integration, nil
}

// CreateTestVehicle creates one active inventory item for a customer
func (tf *TestFixtures) CreateTestVehicle(customerID uint, category models.VehicleCategory) (*models.Vehicle, error) {
	trim := "XLT"
	bodyStyle := "Crew Cab Pickup"
	if category == models.VehicleCategorySUV {
		bodyStyle = "Sport Utility"
	} else if category == models.VehicleCategoryOther {
		bodyStyle = "Sedan"
	}

	vehicle := &models.Vehicle{
		CustomerID:  customerID,
		Year:        2020 + rand.Intn(6),
		Make:        "Ford",
		Model:       "F-150",
		Trim:        &trim,
		BodyStyle:   &bodyStyle,
		StockNumber: fmt.Sprintf("STK%06d", rand.Intn(1000000)),
		Category:    category,
		Active:      true,
	}

	if err := tf.DB.DB.Create(vehicle).Error; err != nil {
		return nil, fmt.Errorf("failed to create test vehicle: %w", err)
	}

	return vehicle, nil
}

// CreateVehicleFleet creates n active vehicles for a customer, cycling through categories
func (tf *TestFixtures) CreateVehicleFleet(customerID uint, n int) ([]*models.Vehicle, error) {
	categories := []models.VehicleCategory{
		models.VehicleCategoryTruck,
		models.VehicleCategorySUV,
		models.VehicleCategoryOther,
	}

	var vehicles []*models.Vehicle
	for i := 0; i < n; i++ {
		vehicle, err := tf.CreateTestVehicle(customerID, categories[i%len(categories)])
		if err != nil {
			return nil, fmt.Errorf("failed to create vehicle %d: %w", i, err)
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}

// CreateTestRegistry creates a campaign registry row for a customer's ad account
func (tf *TestFixtures) CreateTestRegistry(customerID uint, activeCampaignID *string) (*models.CampaignRegistry, error) {
	linkURL := "https://www.example-dealer.com/inventory"

	registry := &models.CampaignRegistry{
		CustomerID:       customerID,
		AdAccountID:      fmt.Sprintf("act_%d", rand.Intn(10000000)),
		ActiveCampaignID: activeCampaignID,
		CreativeID:       fmt.Sprintf("%d", rand.Intn(10000000)),
		LinkURL:          &linkURL,
	}

	if err := tf.DB.DB.Create(registry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test registry: %w", err)
	}

	return registry, nil
}

// CreateTestActivityRecord creates a per-date activity aggregate
func (tf *TestFixtures) CreateTestActivityRecord(recordDate time.Time, successCount, errorCount int) (*models.ActivityRecord, error) {
	record := &models.ActivityRecord{
		RecordDate:   recordDate,
		BatchID:      uuid.New().String(),
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		Payload:      []byte("[]"),
	}

	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test activity record: %w", err)
	}

	return record, nil
}
