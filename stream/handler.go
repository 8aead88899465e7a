package stream

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"study-planner/domain"
)

const (
	dataPrefix = "data: "
	frameEnd   = "\n\n"
)

// Snapshotter returns the current activity collection.
type Snapshotter interface {
	Activities() []domain.Activity
}

// Router is satisfied by *echo.Echo and *echo.Group.
type Router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Register wires the stream endpoint on r.
func Register(r Router, store Snapshotter, broker *Broker) {
	r.GET("/stream", StreamActivities(store, broker))
}

// StreamActivities writes the full snapshot once on connect and again after
// every store change, until the client goes away or the broker is closed.
func StreamActivities(store Snapshotter, broker *Broker) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()
		ch := broker.subscribe()
		defer broker.unsubscribe(ch)
		for {
			data, err := sonic.Marshal(store.Activities())
			if err != nil {
				log.WithError(err).Error("encode activity snapshot")
				return err
			}
			if err := writeFrame(c.Response(), data); err != nil {
				log.WithError(err).Debug("stream client write failed")
				return err
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case _, open := <-ch:
				if !open {
					return nil
				}
			}
		}
	}
}

func writeFrame(w http.ResponseWriter, data []byte) error {
	if _, err := w.Write([]byte(dataPrefix)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte(frameEnd))
	return err
}
