package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const tasksCollection = "tasks"

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(tasksCollection)}
}

// Create inserts a new task document.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return domain.WrapPersistence("insert task", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Task
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.WrapPersistence("find task", err)
	}
	return &t, nil
}

// List returns matching tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, taskFilter(f), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, domain.WrapPersistence("list tasks", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]*domain.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, domain.WrapPersistence("decode tasks", err)
	}
	return tasks, nil
}

func taskFilter(f ports.TaskFilter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.AssignedTo != "" {
		filter["assigned_to"] = f.AssignedTo
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.DueFrom.IsZero() || !f.DueTo.IsZero() {
		due := bson.M{}
		if !f.DueFrom.IsZero() {
			due["$gte"] = f.DueFrom
		}
		if !f.DueTo.IsZero() {
			due["$lt"] = f.DueTo
		}
		filter["due_date"] = due
	}
	return filter
}

// Update applies patch and returns the stored task.
func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set, unset := taskUpdate(patch)
	set["updated_at"] = updatedAt
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t domain.Task
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.WrapPersistence("update task", err)
	}
	return &t, nil
}

func taskUpdate(p domain.TaskPatch) (set, unset bson.M) {
	set, unset = bson.M{}, bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.ClearDueDate {
		unset["due_date"] = ""
	} else if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	if p.AssignedTo != nil {
		set["assigned_to"] = *p.AssignedTo
	}
	if p.ClientID != nil {
		set["client_id"] = *p.ClientID
	}
	if p.IsRecurring != nil {
		set["is_recurring"] = *p.IsRecurring
	}
	if p.RecurrenceType != nil {
		set["recurrence_type"] = *p.RecurrenceType
	}
	if p.RecurrenceInterval != nil {
		set["recurrence_interval"] = *p.RecurrenceInterval
	}
	if p.IsBlocked != nil {
		set["is_blocked"] = *p.IsBlocked
	}
	if p.BlockedReason != nil {
		set["blocked_reason"] = *p.BlockedReason
	}
	if p.CanAdminOverride != nil {
		set["can_admin_override"] = *p.CanAdminOverride
	}
	return set, unset
}

// Delete removes a task for good.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.WrapPersistence("delete task", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes used by the board, agenda and client views.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "parent_task_id", Value: 1}}},
	})
	return err
}
