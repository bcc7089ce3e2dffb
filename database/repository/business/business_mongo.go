package businessRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwise/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrBusinessNotFound is returned when no business matches the query.
	ErrBusinessNotFound = errors.New("business not found")
	// ErrServiceNotFound is returned when no service matches the query.
	ErrServiceNotFound = errors.New("service not found")
	// ErrResourceNotFound is returned when no resource matches the query.
	ErrResourceNotFound = errors.New("resource not found")
)

// BusinessRepository defines read access to businesses, their services,
// resources, and client links.
type BusinessRepository interface {
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	// IsClientLinked reports whether the client is registered with the
	// business.
	IsClientLinked(ctx context.Context, clientID, businessID string) (bool, error)
}

// MongoBusinessRepo implements BusinessRepository using MongoDB.
type MongoBusinessRepo struct {
	businessColl *mongo.Collection
	serviceColl  *mongo.Collection
	resourceColl *mongo.Collection
	linkColl     *mongo.Collection
}

// NewMongoBusinessRepo creates a new BusinessRepository backed by MongoDB.
func NewMongoBusinessRepo(db *mongo.Database) (*MongoBusinessRepo, error) {
	repo := &MongoBusinessRepo{
		businessColl: db.Collection("businesses"),
		serviceColl:  db.Collection("services"),
		resourceColl: db.Collection("resources"),
		linkColl:     db.Collection("client_links"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoBusinessRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for coll, idx := range map[*mongo.Collection][]mongo.IndexModel{
		r.businessColl: {{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		r.serviceColl: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetName("business_idx")},
		},
		r.resourceColl: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetName("business_idx")},
		},
		r.linkColl: {
			{
				Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "business_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_client_business"),
			},
		},
	} {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// GetBusiness retrieves a business by id.
func (r *MongoBusinessRepo) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	var business models.Business
	if err := r.businessColl.FindOne(ctx, bson.M{"id": id}).Decode(&business); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to fetch business %s: %w", id, err)
	}
	return &business, nil
}

// GetService retrieves a service by id.
func (r *MongoBusinessRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := r.serviceColl.FindOne(ctx, bson.M{"id": id}).Decode(&service); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &service, nil
}

// GetResource retrieves a bookable resource by id.
func (r *MongoBusinessRepo) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	var resource models.Resource
	if err := r.resourceColl.FindOne(ctx, bson.M{"id": id}).Decode(&resource); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to fetch resource %s: %w", id, err)
	}
	return &resource, nil
}

// IsClientLinked reports whether the client is registered with the business.
func (r *MongoBusinessRepo) IsClientLinked(ctx context.Context, clientID, businessID string) (bool, error) {
	err := r.linkColl.FindOne(ctx, bson.M{"client_id": clientID, "business_id": businessID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check client link: %w", err)
	}
	return true, nil
}
