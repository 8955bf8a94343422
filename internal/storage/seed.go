package storage

import (
	"context"
	"time"

	"github.com/aanand-mishra/notes-api/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/aanand-mishra/notes-api/internal/storage")

// StartSpan opens a tracing span for a storage operation. The caller
// must End the returned span.
func StartSpan(ctx context.Context, backend, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("storage.backend", backend)),
	)
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedNotes returns the demo notes every fresh store starts with,
// newest first.
func SeedNotes() []types.Note {
	return []types.Note{
		{
			ID:        5,
			CreatedAt: mustTime("2021-03-24T03:36:36.381Z"),
			UpdatedAt: mustTime("2021-03-24T14:27:57.084Z"),
			Title:     "Add a new note",
			Body:      "This was done on an esbuild server! Surprise surprise!",
		},
		{
			ID:        4,
			CreatedAt: mustTime("2021-03-20T09:18:41.808Z"),
			UpdatedAt: mustTime("2021-03-24T13:54:38.538Z"),
			Title:     "I wrote this note today",
			Body:      "It was an excellent note!",
		},
		{
			ID:        3,
			CreatedAt: mustTime("2021-01-15T18:10:58.981Z"),
			UpdatedAt: mustTime("2021-03-24T03:36:19.404Z"),
			Title:     "Make a thing",
			Body: "It's very easy to make some words **bold** and other words *italic* with\n" +
				"Markdown. You can even [link to React's website!](https://www.reactjs.org).",
		},
		{
			ID:        2,
			CreatedAt: mustTime("2021-01-15T20:51:36.095Z"),
			UpdatedAt: mustTime("2021-01-15T20:51:36.095Z"),
			Title:     "A note with a very long title because sometimes you need more words",
			Body: "You can write all kinds of [amazing](https://en.wikipedia.org/wiki/The_Amazing)\n" +
				"notes in this app! These note live on the server in the `notes` folder.\n\n" +
				"![This app is powered by React](https://upload.wikimedia.org/wikipedia/commons/thumb/1/18/React_Native_Logo.png/800px-React_Native_Logo.png)",
		},
		{
			ID:        1,
			CreatedAt: mustTime("2021-02-02T11:15:09.750Z"),
			UpdatedAt: mustTime("2021-02-02T11:15:09.750Z"),
			Title:     "Meeting Notes",
			Body:      "This is an example note. It contains **Markdown**!",
		},
	}
}
