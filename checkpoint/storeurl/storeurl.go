/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package storeurl opens a checkpoint.Store from a location string:
//
//	./output                       a local directory
//	gs://bucket/prefix             a Cloud Storage bucket
//	redis://:pw@host:6379/0?prefix=evalpanel   a Redis database
package storeurl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"chainguard.dev/evalpanel/checkpoint"
	"chainguard.dev/evalpanel/checkpoint/filestore"
	"chainguard.dev/evalpanel/checkpoint/gcsstore"
	"chainguard.dev/evalpanel/checkpoint/redisstore"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces Redis keys when the location names none.
const DefaultRedisPrefix = "evalpanel"

// Kind is the backend a location selects.
type Kind string

const (
	KindDir   Kind = "dir"
	KindGCS   Kind = "gcs"
	KindRedis Kind = "redis"
)

// Location is a parsed store location.
type Location struct {
	Kind Kind
	// Path is the directory of a dir location.
	Path string
	// Bucket is the bucket of a gcs location.
	Bucket string
	// Prefix is the object prefix of a gcs location or the key prefix of a
	// redis location.
	Prefix string
	// RedisURL is the connection URL of a redis location, without prefix.
	RedisURL string
}

// Parse parses a location string.
func Parse(location string) (Location, error) {
	switch {
	case location == "":
		return Location{}, fmt.Errorf("empty store location")
	case strings.HasPrefix(location, "gs://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "gs://"), "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("store location %q names no bucket", location)
		}
		return Location{Kind: KindGCS, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		u, err := url.Parse(location)
		if err != nil {
			return Location{}, fmt.Errorf("parsing store location: %w", err)
		}
		q := u.Query()
		prefix := q.Get("prefix")
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		q.Del("prefix")
		u.RawQuery = q.Encode()
		return Location{Kind: KindRedis, Prefix: prefix, RedisURL: u.String()}, nil
	default:
		return Location{Kind: KindDir, Path: location}, nil
	}
}

// Open connects to the store at location. The returned close func releases
// any client the store holds.
func Open(ctx context.Context, location string) (checkpoint.Store, func() error, error) {
	loc, err := Parse(location)
	if err != nil {
		return nil, nil, err
	}
	switch loc.Kind {
	case KindGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("creating storage client: %w", err)
		}
		return gcsstore.New(client, loc.Bucket, loc.Prefix), client.Close, nil
	case KindRedis:
		opts, err := redis.ParseURL(loc.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing redis url: %w", err)
		}
		client, err := redisstore.Dial(ctx, opts.Addr, opts.Password, opts.DB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, loc.Prefix), client.Close, nil
	default:
		return filestore.New(loc.Path), func() error { return nil }, nil
	}
}
