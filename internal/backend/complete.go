package backend

import (
	"context"
	"fmt"

	"github.com/climatour/climatour-service/internal/session"
	t "github.com/climatour/climatour-service/internal/types"
	"golang.org/x/sync/errgroup"
)

// SaveCompleteItinerary persists a generated itinerary and its activities.
// The two steps are not atomic and there is no compensating rollback: the
// itinerary row is the durable artifact, activities are best-effort
// enrichments. An error is returned only when the itinerary create itself
// fails; activity failures are recorded per item in the result. Activities are
// created one at a time with pacing between calls so a bulk save stays gentle
// on the backend.
func (c *Client) SaveCompleteItinerary(ctx context.Context, ts session.TokenSource, draft t.ItineraryDraft, activities []t.ActivityDraft) (*t.SaveResult, error) {
	itin, err := c.CreateItinerary(ctx, ts, draft)
	if err != nil {
		return nil, fmt.Errorf("creating itinerary: %w", err)
	}
	c.logger.Infow("itinerary created",
		"id", itin.ID, "city", itin.City, "activities", len(activities))

	res := &t.SaveResult{Itinerary: *itin, Success: true}
	for i, draft := range activities {
		if err := c.limiter.Wait(ctx); err != nil {
			// Context cancelled mid-batch; the remaining drafts were never
			// attempted, record them as failed.
			for _, rest := range activities[i:] {
				res.FailedActivities = append(res.FailedActivities, t.FailedActivity{
					Activity: rest,
					Reason:   err.Error(),
				})
			}
			break
		}

		act, err := c.CreateActivity(ctx, ts, itin.ID, draft)
		if err != nil {
			c.logger.Warnw("error creating activity",
				"itinerary", itin.ID, "index", i, "error", err.Error())
			res.FailedActivities = append(res.FailedActivities, t.FailedActivity{
				Activity: draft,
				Reason:   err.Error(),
			})
			continue
		}
		res.Activities = append(res.Activities, *act)
	}

	if len(res.FailedActivities) > 0 {
		res.Message = fmt.Sprintf("Itinerary saved! %d/%d activities created successfully.",
			len(res.Activities), len(activities))
	} else {
		res.Message = fmt.Sprintf("Itinerary saved successfully with all %d activities!",
			len(res.Activities))
	}
	return res, nil
}

// GetItineraryWithActivities fetches an itinerary and its activities. The two
// reads are independent, so they run concurrently.
func (c *Client) GetItineraryWithActivities(ctx context.Context, ts session.TokenSource, id int64) (*t.Itinerary, []t.Activity, error) {
	var (
		itin *t.Itinerary
		acts []t.Activity
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		itin, err = c.GetItineraryById(gctx, ts, id)
		return err
	})
	g.Go(func() error {
		var err error
		acts, err = c.GetActivities(gctx, ts, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return itin, acts, nil
}
