package historical

import (
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"
)

// -----------------------------------------------------------------------------
// Historical data
// -----------------------------------------------------------------------------

// HistoricalDataDecoder yields bar chunks. The chunk with Complete set ends
// the stream.
type HistoricalDataDecoder struct {
	subscriptions.DecoderDefaults[models.MHistoricalData]
}

func (HistoricalDataDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.HistoricalData, messages.HistoricalDataEnd, messages.Error}
}

func (HistoricalDataDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (models.MHistoricalData, error) {
	switch msg.MessageType() {
	case messages.HistoricalData:
		return decodeHistoricalData(serverVersion, msg)
	case messages.HistoricalDataEnd:
		return decodeHistoricalDataEnd(msg)
	case messages.Error:
		return models.MHistoricalData{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return models.MHistoricalData{}, msg.Unexpected()
	}
}

func (HistoricalDataDecoder) CancelMessage(_ int32, id subscriptions.Identity, _ subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelHistoricalData(requestID)
}

func (HistoricalDataDecoder) IsSnapshotEnd(chunk models.MHistoricalData) bool {
	return chunk.Complete
}

func decodeHistoricalData(serverVersion int32, msg *messages.ResponseMessage) (models.MHistoricalData, error) {
	var data models.MHistoricalData

	if err := msg.Skip(); err != nil {
		return data, err
	}
	if !versions.Supports(serverVersion, versions.SyntRealtimeBars) {
		if err := msg.Skip(); err != nil {
			return data, err
		}
	}

	id, err := msg.NextInt()
	if err != nil {
		return data, err
	}
	data.RequestID = id

	// Older servers carry the range here and send everything in one message.
	if !versions.Supports(serverVersion, versions.HistoricalDataEnd) {
		if data.Start, err = nextTimestamp(msg); err != nil {
			return data, err
		}
		if data.End, err = nextTimestamp(msg); err != nil {
			return data, err
		}
		data.Complete = true
	}

	count, err := msg.NextInt()
	if err != nil {
		return data, err
	}

	perBar := 8
	if !versions.Supports(serverVersion, versions.SyntRealtimeBars) {
		perBar = 9
	}
	if err := checkCount(msg, count, perBar, "bar"); err != nil {
		return data, err
	}

	for i := int32(0); i < count; i++ {
		bar, err := decodeBar(serverVersion, msg)
		if err != nil {
			return data, err
		}
		data.Bars = append(data.Bars, bar)
	}

	return data, nil
}

func decodeBar(serverVersion int32, msg *messages.ResponseMessage) (models.MBar, error) {
	var bar models.MBar
	var err error

	if bar.Date, err = nextTimestamp(msg); err != nil {
		return bar, err
	}
	if bar.Open, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.High, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.Low, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.Close, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.Volume, err = msg.NextDecimal(); err != nil {
		return bar, err
	}
	if bar.WAP, err = msg.NextDecimal(); err != nil {
		return bar, err
	}
	if !versions.Supports(serverVersion, versions.SyntRealtimeBars) {
		// has gaps
		if err = msg.Skip(); err != nil {
			return bar, err
		}
	}
	if bar.BarCount, err = msg.NextInt(); err != nil {
		return bar, err
	}
	return bar, nil
}

func decodeHistoricalDataEnd(msg *messages.ResponseMessage) (models.MHistoricalData, error) {
	data := models.MHistoricalData{Complete: true}
	var err error

	if err = msg.Skip(); err != nil {
		return data, err
	}
	if data.RequestID, err = msg.NextInt(); err != nil {
		return data, err
	}
	if data.Start, err = nextTimestamp(msg); err != nil {
		return data, err
	}
	if data.End, err = nextTimestamp(msg); err != nil {
		return data, err
	}
	return data, nil
}

// -----------------------------------------------------------------------------
// Historical updates
// -----------------------------------------------------------------------------

// HistoricalUpdatesDecoder yields the live bar updates that follow a
// keep-up-to-date request. The initial chunks are skipped.
type HistoricalUpdatesDecoder struct {
	subscriptions.DecoderDefaults[models.MBar]
}

func (HistoricalUpdatesDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.HistoricalDataUpdate, messages.Error}
}

func (HistoricalUpdatesDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (models.MBar, error) {
	switch msg.MessageType() {
	case messages.HistoricalDataUpdate:
		return decodeHistoricalDataUpdate(msg)
	case messages.Error:
		return models.MBar{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return models.MBar{}, msg.Unexpected()
	}
}

func (HistoricalUpdatesDecoder) CancelMessage(_ int32, id subscriptions.Identity, _ subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelHistoricalData(requestID)
}

// 90, request id, bar count, date, open, close, high, low, wap, volume
func decodeHistoricalDataUpdate(msg *messages.ResponseMessage) (models.MBar, error) {
	var bar models.MBar
	var err error

	if err = msg.Skip(); err != nil {
		return bar, err
	}
	if err = msg.Skip(); err != nil {
		return bar, err
	}
	if bar.BarCount, err = msg.NextInt(); err != nil {
		return bar, err
	}
	if bar.Date, err = nextTimestamp(msg); err != nil {
		return bar, err
	}
	if bar.Open, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.Close, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.High, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.Low, err = msg.NextDouble(); err != nil {
		return bar, err
	}
	if bar.WAP, err = msg.NextDecimal(); err != nil {
		return bar, err
	}
	if bar.Volume, err = msg.NextDecimal(); err != nil {
		return bar, err
	}
	return bar, nil
}

// -----------------------------------------------------------------------------
// Head timestamp
// -----------------------------------------------------------------------------

// HeadTimestampDecoder yields a single timestamp.
type HeadTimestampDecoder struct {
	subscriptions.DecoderDefaults[time.Time]
}

func (HeadTimestampDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.HeadTimestamp, messages.Error}
}

func (HeadTimestampDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (time.Time, error) {
	switch msg.MessageType() {
	case messages.HeadTimestamp:
		if err := msg.Skip(); err != nil {
			return time.Time{}, err
		}
		if err := msg.Skip(); err != nil {
			return time.Time{}, err
		}
		return nextTimestamp(msg)
	case messages.Error:
		return time.Time{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return time.Time{}, msg.Unexpected()
	}
}

func (HeadTimestampDecoder) CancelMessage(serverVersion int32, id subscriptions.Identity, _ subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelHeadTimestamp(serverVersion, requestID)
}

func (HeadTimestampDecoder) IsSnapshotEnd(time.Time) bool {
	return true
}

// -----------------------------------------------------------------------------
// Histogram
// -----------------------------------------------------------------------------

// HistogramDecoder yields the whole histogram as one value.
type HistogramDecoder struct {
	subscriptions.DecoderDefaults[[]models.MHistogramEntry]
}

func (HistogramDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.HistogramData, messages.Error}
}

func (HistogramDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) ([]models.MHistogramEntry, error) {
	switch msg.MessageType() {
	case messages.HistogramData:
		return decodeHistogramData(msg)
	case messages.Error:
		return nil, messages.DecodeServerError(serverVersion, msg)
	default:
		return nil, msg.Unexpected()
	}
}

func (HistogramDecoder) CancelMessage(_ int32, id subscriptions.Identity, _ subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelHistogramData(requestID)
}

func (HistogramDecoder) IsSnapshotEnd([]models.MHistogramEntry) bool {
	return true
}

// 89, request id, count, (price, size)*
func decodeHistogramData(msg *messages.ResponseMessage) ([]models.MHistogramEntry, error) {
	if err := msg.Skip(); err != nil {
		return nil, err
	}
	if err := msg.Skip(); err != nil {
		return nil, err
	}
	count, err := msg.NextInt()
	if err != nil {
		return nil, err
	}

	if err := checkCount(msg, count, 2, "histogram entry"); err != nil {
		return nil, err
	}

	var entries []models.MHistogramEntry
	for i := int32(0); i < count; i++ {
		var entry models.MHistogramEntry
		if entry.Price, err = msg.NextDouble(); err != nil {
			return nil, err
		}
		if entry.Size, err = msg.NextDecimal(); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// -----------------------------------------------------------------------------
// Historical ticks
// -----------------------------------------------------------------------------

// HistoricalTicksDecoder yields tick batches until one arrives with Done set.
// The gateway has no cancel request for historical ticks.
type HistoricalTicksDecoder struct {
	subscriptions.DecoderDefaults[models.MHistoricalTicks]
}

func (HistoricalTicksDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{
		messages.HistoricalTick, messages.HistoricalTickBidAsk, messages.HistoricalTickLast, messages.Error,
	}
}

func (HistoricalTicksDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (models.MHistoricalTicks, error) {
	kind := msg.MessageType()
	switch kind {
	case messages.HistoricalTick, messages.HistoricalTickBidAsk, messages.HistoricalTickLast:
	case messages.Error:
		return models.MHistoricalTicks{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return models.MHistoricalTicks{}, msg.Unexpected()
	}

	var ticks models.MHistoricalTicks
	var err error

	if err = msg.Skip(); err != nil {
		return ticks, err
	}
	if ticks.RequestID, err = msg.NextInt(); err != nil {
		return ticks, err
	}
	count, err := msg.NextInt()
	if err != nil {
		return ticks, err
	}
	perTick := 6
	if kind == messages.HistoricalTick {
		perTick = 4
	}
	if err := checkCount(msg, count, perTick, "tick"); err != nil {
		return ticks, err
	}

	for i := int32(0); i < count; i++ {
		switch kind {
		case messages.HistoricalTick:
			tick, err := decodeTickMidpoint(msg)
			if err != nil {
				return ticks, err
			}
			ticks.Midpoint = append(ticks.Midpoint, tick)
		case messages.HistoricalTickBidAsk:
			tick, err := decodeTickBidAsk(msg)
			if err != nil {
				return ticks, err
			}
			ticks.BidAsk = append(ticks.BidAsk, tick)
		default:
			tick, err := decodeTickLast(msg)
			if err != nil {
				return ticks, err
			}
			ticks.Last = append(ticks.Last, tick)
		}
	}

	if ticks.Done, err = msg.NextBool(); err != nil {
		return ticks, err
	}
	return ticks, nil
}

func (HistoricalTicksDecoder) IsSnapshotEnd(ticks models.MHistoricalTicks) bool {
	return ticks.Done
}

// time, unused, price, size
func decodeTickMidpoint(msg *messages.ResponseMessage) (models.MTickMidpoint, error) {
	var tick models.MTickMidpoint
	var err error

	if tick.Time, err = nextTimestamp(msg); err != nil {
		return tick, err
	}
	if err = msg.Skip(); err != nil {
		return tick, err
	}
	if tick.Price, err = msg.NextDouble(); err != nil {
		return tick, err
	}
	if tick.Size, err = msg.NextDecimal(); err != nil {
		return tick, err
	}
	return tick, nil
}

// time, mask, bid, ask, bid size, ask size
func decodeTickBidAsk(msg *messages.ResponseMessage) (models.MTickBidAsk, error) {
	var tick models.MTickBidAsk
	var err error

	if tick.Time, err = nextTimestamp(msg); err != nil {
		return tick, err
	}
	mask, err := msg.NextInt()
	if err != nil {
		return tick, err
	}
	tick.PastHigh = mask&1 != 0
	tick.PastLow = mask&2 != 0
	if tick.PriceBid, err = msg.NextDouble(); err != nil {
		return tick, err
	}
	if tick.PriceAsk, err = msg.NextDouble(); err != nil {
		return tick, err
	}
	if tick.SizeBid, err = msg.NextDecimal(); err != nil {
		return tick, err
	}
	if tick.SizeAsk, err = msg.NextDecimal(); err != nil {
		return tick, err
	}
	return tick, nil
}

// time, mask, price, size, exchange, special conditions
func decodeTickLast(msg *messages.ResponseMessage) (models.MTickLast, error) {
	var tick models.MTickLast
	var err error

	if tick.Time, err = nextTimestamp(msg); err != nil {
		return tick, err
	}
	mask, err := msg.NextInt()
	if err != nil {
		return tick, err
	}
	tick.PastLimit = mask&1 != 0
	tick.Unreported = mask&2 != 0
	if tick.Price, err = msg.NextDouble(); err != nil {
		return tick, err
	}
	if tick.Size, err = msg.NextDecimal(); err != nil {
		return tick, err
	}
	if tick.Exchange, err = msg.NextString(); err != nil {
		return tick, err
	}
	if tick.SpecialConditions, err = msg.NextString(); err != nil {
		return tick, err
	}
	return tick, nil
}

// -----------------------------------------------------------------------------

// checkCount rejects a repeated-group count the remaining fields cannot hold.
func checkCount(msg *messages.ResponseMessage, count int32, fieldsPerItem int, what string) error {
	if count < 0 || int64(count)*int64(fieldsPerItem) > int64(msg.Remaining()) {
		return helpers.NewParseError(nil, "%s count %d does not fit %d remaining fields of message %s", what, count, msg.Remaining(), msg.MessageType())
	}
	return nil
}

func nextTimestamp(msg *messages.ResponseMessage) (time.Time, error) {
	field, err := msg.NextString()
	if err != nil {
		return time.Time{}, err
	}
	return messages.ParseTimestamp(field)
}
