package services

import (
	"context"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/rating"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Stats struct {
	Users                    int64   `json:"totalUsers"`
	Interviewers             int64   `json:"totalInterviewers"`
	Managers                 int64   `json:"totalManagers"`
	Companies                int64   `json:"totalCompanies"`
	InterviewerRatings       int64   `json:"totalInterviewerRatings"`
	ManagerReviews           int64   `json:"totalManagerReviews"`
	CompanyReviews           int64   `json:"totalCompanyReviews"`
	AverageManagerRating     float64 `json:"averageManagerRating"`
	AverageInterviewerRating float64 `json:"averageInterviewerRating"`
}

type StatsService struct {
	db *database.DB
}

func NewStatsService(db *database.DB) *StatsService {
	return &StatsService{db: db}
}

// Stats counts every collection the dashboard shows and averages the raw ratings.
func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	counts := []struct {
		coll string
		dst  *int64
	}{
		{database.Users, &out.Users},
		{database.Interviewers, &out.Interviewers},
		{database.Managers, &out.Managers},
		{database.Companies, &out.Companies},
		{database.ManagerReviews, &out.ManagerReviews},
		{database.CompanyReviews, &out.CompanyReviews},
	}
	for _, c := range counts {
		n, err := s.db.Collection(c.coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, storeErr("count "+c.coll, err)
		}
		*c.dst = n
	}

	count, avg, err := s.aggregate(ctx, s.db.Collection(database.Interviewers), mongo.Pipeline{
		{{Key: "$unwind", Value: "$ratings"}},
		{{Key: "$group", Value: bson.M{"_id": nil, "count": bson.M{"$sum": 1}, "avg": bson.M{"$avg": "$ratings.rating"}}}},
	})
	if err != nil {
		return nil, err
	}
	out.InterviewerRatings = count
	out.AverageInterviewerRating = rating.Round2(avg)

	_, avg, err = s.aggregate(ctx, s.db.Collection(database.ManagerReviews), mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "count": bson.M{"$sum": 1}, "avg": bson.M{"$avg": "$rating"}}}},
	})
	if err != nil {
		return nil, err
	}
	out.AverageManagerRating = rating.Round2(avg)
	return &out, nil
}

// aggregate runs a single-group pipeline producing {count, avg}. An empty collection yields zeros.
func (s *StatsService) aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (int64, float64, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, storeErr("aggregate "+coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count int64   `bson:"count"`
		Avg   float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, storeErr("decode "+coll.Name()+" aggregate", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Count, rows[0].Avg, nil
}
