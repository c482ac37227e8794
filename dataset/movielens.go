// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"cmp"
	"context"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/recdata/base"
	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/common/util"
	"github.com/gorse-io/recdata/feature"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"modernc.org/mathutil"
)

const (
	movieLensSeparator = "::"
	movieLensNumFields = 4

	AvgScoreFeature = "avg_score"
	UserIdFeature   = "user_id"
	ItemIdFeature   = "item_id"
)

type MovieLensOptions struct {
	LatentDim int
	// TestSize is not used by the per-user split, which always holds out the
	// last 20% of each user.
	TestSize float32
	Seed     int64
	// SortByTimestamp orders each user's ratings by timestamp before the
	// split. Otherwise file order is used.
	SortByTimestamp bool
	// Progress receives a progress bar over users if not nil.
	Progress io.Writer
}

func DefaultMovieLensOptions() MovieLensOptions {
	return MovieLensOptions{
		LatentDim: 4,
		TestSize:  0.2,
	}
}

// Rating is a parsed row of a MovieLens ratings file.
type Rating struct {
	UserId    int32
	MovieId   int32
	Rating    float32
	Timestamp int64
}

// LoadMovieLensFile opens a local ratings file and calls LoadMovieLens.
func LoadMovieLensFile(ctx context.Context, path string, opts MovieLensOptions) (feature.Columns, *Split, *Split, error) {
	file, err := os.Open(path)
	if err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	defer file.Close()
	return LoadMovieLens(ctx, file, opts)
}

// LoadMovieLens builds the explicit rating dataset from "::" separated rows of
// UserId, MovieId, Rating and Timestamp. For each user, the last 20% of the
// user's ratings become test samples.
func LoadMovieLens(ctx context.Context, r io.Reader, opts MovieLensOptions) (feature.Columns, *Split, *Split, error) {
	ctx, span := tracer.Start(ctx, "LoadMovieLens")
	defer span.End()
	ratings, err := ReadRatings(r)
	if err != nil {
		return feature.Columns{}, nil, nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(ratings)))
	if opts.TestSize != DefaultMovieLensOptions().TestSize {
		log.Logger().Debug("test size is ignored by the per-user split", zap.Float32("test_size", opts.TestSize))
	}
	if err = ctx.Err(); err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}

	// group rows by user, keeping file order inside each group
	rowIndex := lo.Range(len(ratings))
	userRows := lo.GroupBy(rowIndex, func(i int) int32 { return ratings[i].UserId })
	users := lo.Keys(userRows)
	slices.Sort(users)

	// average score of each user
	avgScores := lo.MapValues(userRows, func(rows []int, _ int32) float32 {
		var sum float64
		for _, i := range rows {
			sum += float64(ratings[i].Rating)
		}
		return float32(sum / float64(len(rows)))
	})

	// feature columns
	maxUserId, maxItemId := int32(-1), int32(-1)
	for _, rating := range ratings {
		maxUserId = mathutil.MaxInt32Val(maxUserId, rating.UserId)
		maxItemId = mathutil.MaxInt32Val(maxItemId, rating.MovieId)
	}
	columns := feature.Columns{
		Dense: []feature.Feature{feature.Dense(AvgScoreFeature)},
		Sparse: []feature.Feature{
			feature.Sparse(UserIdFeature, int(maxUserId)+1, opts.LatentDim),
			feature.Sparse(ItemIdFeature, int(maxItemId)+1, opts.LatentDim),
		},
	}

	// hold out the tail of each user
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("split users"))
	isTest := bitset.New(uint(len(ratings)))
	for _, userId := range users {
		rows := userRows[userId]
		if opts.SortByTimestamp {
			rows = slices.Clone(rows)
			slices.SortStableFunc(rows, func(a, b int) int {
				return cmp.Compare(ratings[a].Timestamp, ratings[b].Timestamp)
			})
		}
		for _, i := range rows[len(rows)*4/5:] {
			isTest.Set(uint(i))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	if err = ctx.Err(); err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}

	numTest := int(isTest.Count())
	trainIndex := make([]int, 0, len(ratings)-numTest)
	testIndex := make([]int, 0, numTest)
	for i := range ratings {
		if isTest.Test(uint(i)) {
			testIndex = append(testIndex, i)
		} else {
			trainIndex = append(trainIndex, i)
		}
	}
	rng := base.NewRandomGenerator(opts.Seed)
	rng.ShuffleInts(trainIndex)
	rng.ShuffleInts(testIndex)
	newRatingSplit := func(index []int) *Split {
		split := newSplit(len(index))
		for _, i := range index {
			rating := ratings[i]
			split.append(
				[]float32{avgScores[rating.UserId]},
				[]int32{rating.UserId, rating.MovieId},
				int32(rating.Rating))
		}
		return split
	}
	train, test := newRatingSplit(trainIndex), newRatingSplit(testIndex)
	log.Logger().Info("prepare movielens dataset",
		zap.Int("users", len(users)),
		zap.Int("train", train.Count()),
		zap.Int("test", test.Count()))
	return columns, train, test, nil
}

// ReadRatings parses "::" separated ratings.
func ReadRatings(r io.Reader) ([]Rating, error) {
	var ratings []Rating
	err := scanLines(r, movieLensSeparator, 0, func(_ int, fields []string) error {
		if len(fields) != movieLensNumFields {
			return errors.Errorf("expected %d fields but got %d", movieLensNumFields, len(fields))
		}
		var (
			rating Rating
			err    error
		)
		if rating.UserId, err = util.ParseInt[int32](fields[0]); err != nil {
			return errors.Annotate(err, "UserId")
		}
		if rating.MovieId, err = util.ParseInt[int32](fields[1]); err != nil {
			return errors.Annotate(err, "MovieId")
		}
		if rating.Rating, err = util.ParseFloat[float32](fields[2]); err != nil {
			return errors.Annotate(err, "Rating")
		}
		if rating.Timestamp, err = parseTimestamp(fields[3]); err != nil {
			return errors.Annotate(err, "Timestamp")
		}
		ratings = append(ratings, rating)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// parseTimestamp accepts unix seconds or any layout known to dateparse.
func parseTimestamp(s string) (int64, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return t.Unix(), nil
}
