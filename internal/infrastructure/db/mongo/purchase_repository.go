package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const (
	collectionPurchases     = "purchases"
	collectionPurchaseLines = "purchase_lines"
)

type PurchaseRepository struct {
	purchases *mongo.Collection
	lines     *mongo.Collection
}

var _ ports.PurchaseRepository = (*PurchaseRepository)(nil)

func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{
		purchases: db.Collection(collectionPurchases),
		lines:     db.Collection(collectionPurchaseLines),
	}
}

type purchaseDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	AccountID       string             `bson:"account_id"`
	TotalCents      int64              `bson:"total_cents"`
	Status          string             `bson:"status"`
	PaymentMethod   string             `bson:"payment_method"`
	RedeemedTickets int                `bson:"redeemed_tickets"`
	CreatedAt       time.Time          `bson:"created_at"`
}

type purchaseLineDoc struct {
	PurchaseID     primitive.ObjectID `bson:"purchase_id"`
	Position       int                `bson:"position"`
	ProductName    string             `bson:"product_name"`
	Quantity       int                `bson:"quantity"`
	UnitPriceCents int64              `bson:"unit_price_cents"`
	LineTotalCents int64              `bson:"line_total_cents"`
}

func (r *PurchaseRepository) InsertPurchase(ctx context.Context, p *domain.Purchase) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := purchaseDoc{
		ID:              primitive.NewObjectID(),
		AccountID:       p.AccountID,
		TotalCents:      toCents(p.Total),
		Status:          string(p.Status),
		PaymentMethod:   p.PaymentMethod,
		RedeemedTickets: p.RedeemedTickets,
		CreatedAt:       p.CreatedAt,
	}
	if _, err := r.purchases.InsertOne(ctx, doc); err != nil {
		return "", unavailable("insert purchase", err)
	}
	return doc.ID.Hex(), nil
}

func (r *PurchaseRepository) InsertPurchaseLines(ctx context.Context, lines []domain.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}

	docs := make([]interface{}, len(lines))
	for i, l := range lines {
		oid, err := primitive.ObjectIDFromHex(l.PurchaseID)
		if err != nil {
			return domain.ErrPurchaseNotFound
		}
		docs[i] = purchaseLineDoc{
			PurchaseID:     oid,
			Position:       i,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: toCents(l.UnitPrice),
			LineTotalCents: toCents(l.LineTotal),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.lines.InsertMany(ctx, docs); err != nil {
		return unavailable("insert purchase lines", err)
	}
	return nil
}

func (r *PurchaseRepository) DeletePurchase(ctx context.Context, purchaseID string) error {
	oid, err := primitive.ObjectIDFromHex(purchaseID)
	if err != nil {
		return domain.ErrPurchaseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.lines.DeleteMany(ctx, bson.M{"purchase_id": oid}); err != nil {
		return unavailable("delete purchase lines", err)
	}
	res, err := r.purchases.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return unavailable("delete purchase", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

// ListPurchases returns the account's purchases, newest first.
func (r *PurchaseRepository) ListPurchases(ctx context.Context, accountID string) ([]domain.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.purchases.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, unavailable("list purchases", err)
	}
	var docs []purchaseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("decode purchases", err)
	}

	out := make([]domain.Purchase, len(docs))
	for i, d := range docs {
		out[i] = domain.Purchase{
			ID:              d.ID.Hex(),
			AccountID:       d.AccountID,
			Total:           fromCents(d.TotalCents),
			Status:          domain.PurchaseStatus(d.Status),
			PaymentMethod:   d.PaymentMethod,
			RedeemedTickets: d.RedeemedTickets,
			CreatedAt:       d.CreatedAt.UTC(),
		}
	}
	return out, nil
}

// ListPurchaseLines returns lines in checkout order.
func (r *PurchaseRepository) ListPurchaseLines(ctx context.Context, purchaseID string) ([]domain.PurchaseLine, error) {
	oid, err := primitive.ObjectIDFromHex(purchaseID)
	if err != nil {
		return nil, domain.ErrPurchaseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := r.lines.Find(ctx, bson.M{"purchase_id": oid}, opts)
	if err != nil {
		return nil, unavailable("list purchase lines", err)
	}
	var docs []purchaseLineDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("decode purchase lines", err)
	}

	out := make([]domain.PurchaseLine, len(docs))
	for i, d := range docs {
		out[i] = domain.PurchaseLine{
			PurchaseID:  purchaseID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   fromCents(d.UnitPriceCents),
			LineTotal:   fromCents(d.LineTotalCents),
		}
	}
	return out, nil
}
