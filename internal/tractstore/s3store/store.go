// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package s3store implements internal/tractstore.Store against an S3-
// compatible object store, grounded on the teacher's pkg/archive
// S3Archive and its aws-sdk-go-v2 dependency: every tract is one object,
// keyed by kind and id, and the ROI lives at a fixed "roi.json" key.
package s3store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/connectome-lab/hctree/internal/engerr"
	"github.com/connectome-lab/hctree/internal/tractstore"
	"github.com/connectome-lab/hctree/pkg/tract"
)

// Config describes how to reach the bucket holding this run's tracts.
type Config struct {
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyID"`
	SecretAccessKey string `json:"secretAccessKey"`
	UsePathStyle    bool   `json:"usePathStyle"`
}

// S3Store is a tractstore.Store backed by a single S3-compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	threshold float32
	nstream   int
}

var _ tractstore.Store = (*S3Store)(nil)

// Open builds an S3-compatible client from cfg and returns a store bound
// to cfg.Bucket.
func Open(ctx context.Context, cfg Config, threshold float32, nstream int) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3store: bucket is required")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{client: client, bucket: cfg.Bucket, threshold: threshold, nstream: nstream}, nil
}

func leafKey(id int) string { return fmt.Sprintf("leaves/%d.tract", id) }
func nodeKey(id int) string { return fmt.Sprintf("nodes/%d.tract", id) }

const roiKey = "roi.json"

func (s *S3Store) ReadLeafTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(ctx, leafKey(id), logUnits, threshold)
}

func (s *S3Store) ReadNodeTract(ctx context.Context, id int, logUnits, threshold bool) (*tract.Tract, error) {
	return s.read(ctx, nodeKey(id), logUnits, threshold)
}

func (s *S3Store) read(ctx context.Context, key string, logUnits, threshold bool) (*tract.Tract, error) {
	payload, err := s.getObject(ctx, key)
	if err != nil {
		return nil, err
	}

	values, err := decodeValues(payload)
	if err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "s3store: decode %s", key)
	}

	t := tract.New(values)
	if threshold && s.threshold > 0 {
		if err := tract.Threshold(t, s.threshold); err != nil {
			return nil, err
		}
	}
	if logUnits && s.nstream > 0 {
		if err := tract.DoLog(t, s.nstream); err != nil {
			return nil, err
		}
	}
	tract.ComputeNorm(t)
	return t, nil
}

// WriteNodeTract puts a node's natural-unit tract object, overwriting any
// existing object at the same key.
func (s *S3Store) WriteNodeTract(ctx context.Context, id int, t *tract.Tract) error {
	return s.putObject(ctx, nodeKey(id), encodeValues(t.Values))
}

// DeleteNodeTract best-effort removes a node tract object.
func (s *S3Store) DeleteNodeTract(ctx context.Context, id int) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(nodeKey(id)),
	})
	if err != nil {
		return engerr.Wrap(engerr.IOError, err, "s3store: delete node tract %d", id)
	}
	return nil
}

func (s *S3Store) LoadROI(ctx context.Context) (*tractstore.ROI, error) {
	data, err := s.getObject(ctx, roiKey)
	if err != nil {
		return nil, err
	}
	var roi tractstore.ROI
	if err := json.Unmarshal(data, &roi); err != nil {
		return nil, engerr.Wrap(engerr.Corruption, err, "s3store: decode roi")
	}
	return &roi, nil
}

// WriteROI puts the ROI document at the fixed roi.json key.
func (s *S3Store) WriteROI(ctx context.Context, roi *tractstore.ROI) error {
	data, err := json.Marshal(roi)
	if err != nil {
		return fmt.Errorf("s3store: encode roi: %w", err)
	}
	return s.putObject(ctx, roiKey, data)
}

func (s *S3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if ok := errors.As(err, &apiErr); ok && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, engerr.New(engerr.IOError, "s3store: no object at %s", key)
		}
		return nil, engerr.Wrap(engerr.IOError, err, "s3store: get %s", key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "s3store: read %s", key)
	}
	return data, nil
}

func (s *S3Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return engerr.Wrap(engerr.IOError, err, "s3store: put %s", key)
	}
	return nil
}

func encodeValues(values []float32) []byte {
	payload := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}
	return payload
}

func decodeValues(payload []byte) ([]float32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("tract payload length %d not a multiple of 4", len(payload))
	}
	values := make([]float32, len(payload)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return values, nil
}
