package routing

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// maxLoggedBody caps how much of a request body ends up in the log.
const maxLoggedBody = 4 << 10

type Logger struct {
	requestCount atomic.Uint64
	file         *os.File
	logger       *logrus.Logger
}

// NewLogger writes request lines to fileName and stdout. An empty fileName
// logs to stdout only.
func NewLogger(startingRequestId uint64, fileName string) (*Logger, error) {
	l := &Logger{logger: logrus.New()}
	l.requestCount.Store(startingRequestId)
	l.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if fileName == "" {
		l.logger.SetOutput(os.Stdout)
		return l, nil
	}
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = file
	l.logger.SetOutput(io.MultiWriter(file, os.Stdout))
	return l, nil
}

// NewLoggerWithOutput is used by tests and tools that want the request log
// somewhere other than a file.
func NewLoggerWithOutput(startingRequestId uint64, out io.Writer) *Logger {
	l := &Logger{logger: logrus.New()}
	l.requestCount.Store(startingRequestId)
	l.logger.SetOutput(out)
	return l
}

// Base exposes the underlying logger so components can share its output.
func (l *Logger) Base() *logrus.Logger {
	return l.logger
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) getNewRequestId() uint64 {
	return l.requestCount.Add(1) - 1
}

func (l *Logger) LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := l.getNewRequestId()
		started := time.Now()

		body := "none"
		if r.Method != http.MethodGet && r.Method != http.MethodDelete && r.Body != nil {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
			if err != nil {
				body = "failed to read body"
			} else {
				body = string(bodyBytes)
				// hand the handler the bytes we consumed plus whatever is left
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(bodyBytes), r.Body), r.Body}
			}
		}

		errContainer := domain.NewErrorContainer()
		ctx := WithErrorContainer(r.Context(), &errContainer)
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		entry := l.logger.WithFields(logrus.Fields{
			"request":  reqId,
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"body":     body,
			"duration": time.Since(started),
		})
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}

		errs := errContainer.Unwrap()
		if len(errs) == 0 {
			entry.Info("OK")
			return
		}
		entry.WithField("errors", len(errs)).Error("ERROR")
		for i, err := range errs {
			entry.Errorf(" %d. %v", i+1, err)
		}
	})
}
