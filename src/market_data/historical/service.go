package historical

import (
	"context"
	"errors"
	"io"
	"time"

	"gateway-stream/src/client"
	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"
)

// BarsRequest describes a historical bar query.
type BarsRequest struct {
	Contract models.MContract
	// EndDate nil means "now" on the gateway side.
	EndDate      *time.Time
	Duration     models.Duration
	BarSize      models.BarSize
	WhatToShow   *models.WhatToShow
	UseRTH       bool
	ChartOptions []models.MTagValue
}

// TicksRequest describes a historical tick query. Set either Start or End.
type TicksRequest struct {
	Contract      models.MContract
	Start         *time.Time
	End           *time.Time
	NumberOfTicks int32
	WhatToShow    models.WhatToShow
	UseRTH        bool
	IgnoreSize    bool
}

// Service issues historical market data requests over a client.
type Service struct {
	client *client.Client
}

func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// HistoricalData streams bar chunks until the chunk marked Complete.
func (s *Service) HistoricalData(ctx context.Context, req BarsRequest) (*subscriptions.Subscription[models.MHistoricalData], error) {
	id := s.client.NextRequestID()
	msg, err := EncodeRequestHistoricalData(s.client.ServerVersion(), id, req.Contract, req.EndDate, req.Duration,
		req.BarSize, req.WhatToShow, req.UseRTH, false, req.ChartOptions)
	if err != nil {
		return nil, err
	}
	return client.Subscribe[models.MHistoricalData](ctx, s.client, id, msg, HistoricalDataDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestHistoricalData})
}

// HistoricalDataUpdates keeps the request open and streams bar updates. The
// initial history is skipped.
func (s *Service) HistoricalDataUpdates(ctx context.Context, req BarsRequest) (*subscriptions.Subscription[models.MBar], error) {
	if err := s.client.RequireVersion(versions.SyntRealtimeBars, "keep up to date bars"); err != nil {
		return nil, err
	}
	if req.EndDate != nil {
		return nil, helpers.NewEncodingError("keep up to date bars cannot have an end date")
	}
	id := s.client.NextRequestID()
	msg, err := EncodeRequestHistoricalData(s.client.ServerVersion(), id, req.Contract, nil, req.Duration,
		req.BarSize, req.WhatToShow, req.UseRTH, true, req.ChartOptions)
	if err != nil {
		return nil, err
	}
	return client.Subscribe[models.MBar](ctx, s.client, id, msg, HistoricalUpdatesDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestHistoricalData})
}

// Bars runs a historical data request to completion and returns every bar.
func (s *Service) Bars(ctx context.Context, req BarsRequest) ([]models.MBar, error) {
	sub, err := s.HistoricalData(ctx, req)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	var bars []models.MBar
	for {
		chunk, err := sub.Next(ctx)
		if errors.Is(err, io.EOF) {
			return bars, nil
		}
		if err != nil {
			return bars, err
		}
		bars = append(bars, chunk.Bars...)
	}
}

// HeadTimestamp returns the earliest available data point for contract.
func (s *Service) HeadTimestamp(ctx context.Context, contract models.MContract, whatToShow models.WhatToShow, useRTH bool) (time.Time, error) {
	if err := s.client.RequireVersion(versions.ReqHeadTimestamp, "head timestamp"); err != nil {
		return time.Time{}, err
	}
	id := s.client.NextRequestID()
	msg, err := EncodeRequestHeadTimestamp(id, contract, whatToShow, useRTH)
	if err != nil {
		return time.Time{}, err
	}
	sub, err := client.Subscribe[time.Time](ctx, s.client, id, msg, HeadTimestampDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestHeadTimestamp})
	if err != nil {
		return time.Time{}, err
	}
	defer sub.Close()

	ts, err := sub.Next(ctx)
	if errors.Is(err, io.EOF) {
		return time.Time{}, helpers.NewParseError(nil, "head timestamp stream ended without a value")
	}
	return ts, err
}

// HistogramData returns the volume distribution of contract over period. It
// blocks until the gateway answers.
func (s *Service) HistogramData(ctx context.Context, contract models.MContract, useRTH bool, period models.BarSize) ([]models.MHistogramEntry, error) {
	if err := s.client.RequireVersion(versions.ReqHistogram, "histogram data"); err != nil {
		return nil, err
	}
	id := s.client.NextRequestID()
	msg, err := EncodeRequestHistogramData(id, contract, useRTH, period)
	if err != nil {
		return nil, err
	}
	sub, err := client.SubscribeSync[[]models.MHistogramEntry](ctx, s.client, id, msg, HistogramDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestHistogramData})
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	entries, ok := sub.Next()
	if !ok {
		if err := sub.Err(); err != nil {
			return nil, err
		}
		return nil, helpers.NewParseError(nil, "histogram stream ended without a value")
	}
	return entries, nil
}

// HistoricalTicks streams tick batches until the batch marked Done.
func (s *Service) HistoricalTicks(ctx context.Context, req TicksRequest) (*subscriptions.Subscription[models.MHistoricalTicks], error) {
	if err := s.client.RequireVersion(versions.HistoricalTicks, "historical ticks"); err != nil {
		return nil, err
	}
	id := s.client.NextRequestID()
	msg, err := EncodeRequestHistoricalTicks(id, req.Contract, req.Start, req.End, req.NumberOfTicks,
		req.WhatToShow, req.UseRTH, req.IgnoreSize)
	if err != nil {
		return nil, err
	}
	return client.Subscribe[models.MHistoricalTicks](ctx, s.client, id, msg, HistoricalTicksDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestHistoricalTicks})
}
