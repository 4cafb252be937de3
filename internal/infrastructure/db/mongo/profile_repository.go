package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const profilesCollection = "profiles"

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(profilesCollection)}
}

// profileDoc stores valor_mensal as a decimal string so no precision is lost.
type profileDoc struct {
	domain.Profile `bson:",inline"`
	ValorMensal    string `bson:"valor_mensal"`
}

func newProfileDoc(p *domain.Profile) profileDoc {
	return profileDoc{Profile: *p, ValorMensal: p.ValorMensal.String()}
}

func (d profileDoc) toDomain() *domain.Profile {
	p := d.Profile
	if d.ValorMensal != "" {
		if v, err := decimal.NewFromString(d.ValorMensal); err == nil {
			p.ValorMensal = v
		}
	}
	return &p
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, newProfileDoc(p)); err != nil {
		return domain.WrapPersistence("insert profile", err)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *ProfileRepository) findOne(ctx context.Context, filter bson.M) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc profileDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, domain.WrapPersistence("find profile", err)
	}
	return doc.toDomain(), nil
}

// List returns matching profiles sorted by nome.
func (r *ProfileRepository) List(ctx context.Context, f ports.ProfileFilter) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Ativo != nil {
		filter["ativo"] = *f.Ativo
	}
	if f.UserIDs != nil {
		filter["user_id"] = bson.M{"$in": f.UserIDs}
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, domain.WrapPersistence("list profiles", err)
	}
	defer cursor.Close(ctx)

	var docs []profileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.WrapPersistence("decode profiles", err)
	}
	out := make([]*domain.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update applies patch and returns the stored profile.
func (r *ProfileRepository) Update(ctx context.Context, id string, patch domain.ProfilePatch, updatedAt time.Time) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := profileSet(patch)
	set["updated_at"] = updatedAt

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, domain.WrapPersistence("update profile", err)
	}
	return doc.toDomain(), nil
}

func profileSet(p domain.ProfilePatch) bson.M {
	set := bson.M{}
	if p.Nome != nil {
		set["nome"] = *p.Nome
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Telefone != nil {
		set["telefone"] = *p.Telefone
	}
	if p.Empresa != nil {
		set["empresa"] = *p.Empresa
	}
	if p.CNPJ != nil {
		set["cnpj"] = *p.CNPJ
	}
	if p.CEP != nil {
		set["cep"] = *p.CEP
	}
	if p.Endereco != nil {
		set["endereco"] = *p.Endereco
	}
	if p.ValorMensal != nil {
		set["valor_mensal"] = p.ValorMensal.String()
	}
	if p.Pagamento != nil {
		set["pagamento"] = string(*p.Pagamento)
	}
	if p.Ativo != nil {
		set["ativo"] = *p.Ativo
	}
	return set
}

func (r *ProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return domain.WrapPersistence("delete profile", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ativo", Value: 1}, {Key: "nome", Value: 1}}},
	})
	return err
}
