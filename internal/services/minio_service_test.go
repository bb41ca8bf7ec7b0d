package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeS3 understands just enough of the S3 API for the calls MinioService makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
}

func (s *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, object, _ := strings.Cut(path, "/")

	switch {
	case r.Method == http.MethodHead && object == "":
		if !s.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && object == "":
		s.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.objects[path] = body
		s.types[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(s.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

type MinioServiceTestSuite struct {
	suite.Suite
	backend *fakeS3
	server  *httptest.Server
	service MinioService
	ctx     context.Context
}

func (suite *MinioServiceTestSuite) SetupTest() {
	suite.backend = &fakeS3{
		buckets: map[string]bool{"invoices": true},
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
	suite.server = httptest.NewServer(suite.backend)
	suite.service = suite.newService("invoices")
	suite.ctx = context.Background()
}

func (suite *MinioServiceTestSuite) newService(bucket string) MinioService {
	svc, err := NewMinioService(MinioOptions{
		Endpoint:  strings.TrimPrefix(suite.server.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		Bucket:    bucket,
	})
	require.NoError(suite.T(), err)
	return svc
}

func (suite *MinioServiceTestSuite) TearDownTest() {
	suite.server.Close()
}

func TestMinioServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MinioServiceTestSuite))
}

func (suite *MinioServiceTestSuite) TestUploadPDF() {
	data := []byte("%PDF-1.3 test document")

	err := suite.service.UploadPDF(suite.ctx, "seller-1/Invoice-007.pdf", data)
	require.NoError(suite.T(), err)

	suite.backend.mu.Lock()
	defer suite.backend.mu.Unlock()
	stored, ok := suite.backend.objects["invoices/seller-1/Invoice-007.pdf"]
	require.True(suite.T(), ok)
	assert.Contains(suite.T(), string(stored), string(data))
	assert.Equal(suite.T(), "application/pdf", suite.backend.types["invoices/seller-1/Invoice-007.pdf"])
}

func (suite *MinioServiceTestSuite) TestGetPresignedURL() {
	url, err := suite.service.GetPresignedURL(suite.ctx, "seller-1/Invoice-007.pdf", time.Hour)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), url, "/invoices/seller-1/Invoice-007.pdf")
	assert.Contains(suite.T(), url, "X-Amz-Expires=3600")
	assert.Contains(suite.T(), url, "X-Amz-Signature=")
}

func (suite *MinioServiceTestSuite) TestEnsureBucketExists_Creates() {
	svc := suite.newService("archive")
	require.Error(suite.T(), svc.Ping(suite.ctx))

	require.NoError(suite.T(), svc.EnsureBucketExists(suite.ctx))
	assert.True(suite.T(), suite.backend.buckets["archive"])
	assert.NoError(suite.T(), svc.Ping(suite.ctx))
}

func (suite *MinioServiceTestSuite) TestDeleteObject() {
	suite.backend.objects["invoices/old.pdf"] = []byte("x")

	require.NoError(suite.T(), suite.service.DeleteObject(suite.ctx, "old.pdf"))
	_, ok := suite.backend.objects["invoices/old.pdf"]
	assert.False(suite.T(), ok)
}
