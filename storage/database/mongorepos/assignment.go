package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/storage/database"
)

type assignmentDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           string             `bson:"user_id"`
	Title            string             `bson:"title"`
	Course           string             `bson:"course"`
	Notes            string             `bson:"notes"`
	DueDate          time.Time          `bson:"due_date"`
	Priority         int                `bson:"priority"`
	EstimatedMinutes *int               `bson:"estimated_time,omitempty"`
	Completed        bool               `bson:"completed"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func newAssignmentDoc(a assignment.Assignment) assignmentDoc {
	return assignmentDoc{
		UserID:           a.OwnerID,
		Title:            a.Title,
		Course:           a.Course,
		Notes:            a.Notes,
		DueDate:          a.DueDate,
		Priority:         a.Priority,
		EstimatedMinutes: a.EstimatedMinutes,
		Completed:        a.Completed,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (d assignmentDoc) assignment() assignment.Assignment {
	return assignment.Assignment{
		ID:               d.ID.Hex(),
		OwnerID:          d.UserID,
		Title:            d.Title,
		Course:           d.Course,
		Notes:            d.Notes,
		DueDate:          d.DueDate.UTC(),
		Priority:         d.Priority,
		EstimatedMinutes: d.EstimatedMinutes,
		Completed:        d.Completed,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	coll *mongo.Collection
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *database.DB) assignment.Repository {
	return &assignmentRepository{coll: db.Collection(database.AssignmentsCollection)}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.coll.InsertOne(ctx, newAssignmentDoc(a))
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, owner, id string) (assignment.Assignment, error) {
	filter, err := OwnedFilter(owner, id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	var doc assignmentDoc
	if err = repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return assignment.Assignment{}, notFound(err, "finding assignment")
	}
	return doc.assignment(), nil
}

func (repo *assignmentRepository) findOneAndUpdate(ctx context.Context, owner, id string, update interface{}) (assignment.Assignment, error) {
	filter, err := OwnedFilter(owner, id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc assignmentDoc
	if err = repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return assignment.Assignment{}, notFound(err, "updating assignment")
	}
	return doc.assignment(), nil
}

func (repo *assignmentRepository) UpdateAssignment(
	ctx context.Context, owner, id string, ua assignment.UpdateAssignment, updatedAt time.Time,
) (assignment.Assignment, error) {
	return repo.findOneAndUpdate(ctx, owner, id, UpdateDocument(ua, updatedAt))
}

func (repo *assignmentRepository) ToggleAssignmentCompleted(
	ctx context.Context, owner, id string, updatedAt time.Time,
) (assignment.Assignment, error) {
	return repo.findOneAndUpdate(ctx, owner, id, TogglePipeline(updatedAt))
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, owner, id string) (bool, error) {
	filter, err := OwnedFilter(owner, id)
	if err != nil {
		return false, nil
	}
	res, err := repo.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, errors.Wrap(err, "deleting assignment")
	}
	return res.DeletedCount > 0, nil
}

func (repo *assignmentRepository) QueryAssignments(
	ctx context.Context, owner string, filter assignment.QueryFilter, ordering []core.DBOrdering, limit int,
) ([]assignment.Assignment, error) {
	opts := options.Find().SetSort(SortDocument(ordering))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := repo.coll.Find(ctx, QueryDocument(owner, filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	var docs []assignmentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding assignments")
	}
	items := make([]assignment.Assignment, len(docs))
	for i, d := range docs {
		items[i] = d.assignment()
	}
	return items, nil
}

// OwnedFilter selects assignment id of owner. A malformed id is ErrNotFound.
func OwnedFilter(owner, id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || owner == "" {
		return nil, assignment.ErrNotFound
	}
	return bson.M{"_id": oid, "user_id": owner}, nil
}

// QueryDocument translates filter into a find query scoped to owner.
func QueryDocument(owner string, filter assignment.QueryFilter) bson.M {
	query := bson.M{"user_id": owner}
	var and bson.A

	if filter.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": rx},
			bson.M{"notes": rx},
		}})
	}
	if filter.Course != "" {
		query["course"] = filter.Course
	}

	due := bson.M{}
	if !filter.DueFrom.IsZero() {
		due["$gte"] = filter.DueFrom
	}
	if !filter.DueTo.IsZero() {
		due["$lte"] = filter.DueTo
	}
	if len(due) > 0 {
		query["due_date"] = due
	}

	estimated := bson.M{}
	if filter.MinEstimated != nil {
		estimated["$gte"] = *filter.MinEstimated
	}
	if filter.MaxEstimated != nil {
		estimated["$lte"] = *filter.MaxEstimated
	}
	if len(estimated) > 0 {
		query["estimated_time"] = estimated
	}

	if !filter.ShowCompleted {
		if filter.CompletedSince.IsZero() {
			query["completed"] = bson.M{"$ne": true}
		} else {
			and = append(and, bson.M{"$or": bson.A{
				bson.M{"completed": bson.M{"$ne": true}},
				bson.M{"updated_at": bson.M{"$gte": filter.CompletedSince}},
			}})
		}
	}

	switch len(and) {
	case 0:
	case 1:
		for k, v := range and[0].(bson.M) {
			query[k] = v
		}
	default:
		query["$and"] = and
	}
	return query
}

// SortDocument renders ordering as a sort specification.
func SortDocument(ordering []core.DBOrdering) bson.D {
	sort := make(bson.D, 0, len(ordering)+1)
	for _, o := range ordering {
		sort = append(sort, bson.E{Key: o.Field, Value: o.Direction()})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

// UpdateDocument sets the supplied fields of ua and always bumps updated_at.
func UpdateDocument(ua assignment.UpdateAssignment, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if ua.Title != nil {
		set["title"] = *ua.Title
	}
	if ua.Course != nil {
		set["course"] = *ua.Course
	}
	if ua.Notes != nil {
		set["notes"] = *ua.Notes
	}
	if ua.DueDate != nil {
		set["due_date"] = ua.ParsedDueDate()
	}
	if ua.Priority != nil {
		set["priority"] = *ua.Priority
	}
	if ua.Completed != nil {
		set["completed"] = *ua.Completed
	}

	update := bson.M{"$set": set}
	if ua.ClearEstimatedMinutes {
		update["$unset"] = bson.M{"estimated_time": ""}
	} else if ua.EstimatedMinutes != nil {
		set["estimated_time"] = *ua.EstimatedMinutes
	}
	return update
}

// TogglePipeline flips completed server side in a single write.
func TogglePipeline(updatedAt time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "completed", Value: bson.D{{Key: "$not", Value: bson.A{"$completed"}}}},
			{Key: "updated_at", Value: updatedAt},
		}}},
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
