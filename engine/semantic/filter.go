package semantic

import (
	"strings"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// buildFilter translates the pre-filter predicate into a Qdrant Must
// conjunction. Returns nil when no clause applies.
func buildFilter(pre PreFilter) *pb.Filter {
	var must []*pb.Condition

	keyword := func(key string, val *string) {
		if val != nil {
			must = append(must, keywordMatch(key, strings.ToLower(*val)))
		}
	}
	keyword(domain.AttrType, pre.Type)
	keyword(domain.AttrColor, pre.Color)
	keyword(domain.AttrDrivetrain, pre.Drivetrain)
	keyword(domain.AttrTransmission, pre.Transmission)
	keyword(domain.AttrFuel, pre.Fuel)

	if pre.Seats != nil {
		must = append(must, intMatch(domain.AttrSeats, int64(*pre.Seats)))
	}
	if pre.MinYear != nil {
		gte := float64(*pre.MinYear)
		must = append(must, rangeCond(domain.AttrYear, &gte, nil))
	}
	if pre.ConsumptionMin != nil || pre.ConsumptionMax != nil {
		must = append(must, rangeCond(domain.AttrConsumption, pre.ConsumptionMin, pre.ConsumptionMax))
	}

	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

// keywordMatch builds an exact keyword clause. Categorical payload values
// are stored lowercased, so lowercasing the query value here keeps the
// match case-insensitive without needing a full-text payload index.
func keywordMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func intMatch(key string, value int64) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Integer{Integer: value},
				},
			},
		},
	}
}

func rangeCond(key string, gte, lte *float64) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Range: &pb.Range{Gte: gte, Lte: lte},
			},
		},
	}
}
