// Package services implements the gRPC analysis API. Messages are
// google.protobuf.Struct values shaped like the HTTP JSON bodies, so the
// service needs no generated stubs.
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const ServiceName = "solarsite.v1.AnalysisService"

// Analyzer is the orchestrator surface the service needs.
type Analyzer interface {
	Analyze(ctx context.Context, sess analysis.AnalysisSession, site analysis.Site) (analysis.AnalysisSession, *analysis.AreaAnalysisResult, error)
	Parameters() *suitability.ParameterSet
}

type GeoJSONParser interface {
	ParseGeoJSON(data []byte) ([]analysis.Site, error)
}

// AnalysisServiceServer is the server API of solarsite.v1.AnalysisService.
type AnalysisServiceServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListParameters(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// AnalysisService serves single-site analyses over gRPC.
type AnalysisService struct {
	analyzer  Analyzer
	parser    GeoJSONParser
	ownership suitability.LandOwnership
	logger    logging.Logger
}

func NewAnalysisService(a Analyzer, p GeoJSONParser, defaultOwnership suitability.LandOwnership, logger logging.Logger) *AnalysisService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisService{analyzer: a, parser: p, ownership: defaultOwnership, logger: logger.Named("grpc.analysis")}
}

type analyzeRequest struct {
	Geometry        json.RawMessage `json:"geometry"`
	Name            string          `json:"name"`
	LandOwnership   string          `json:"landOwnership"`
	SplitLargeAreas bool            `json:"splitLargeAreas"`
	MaxArea         float64         `json:"maxArea"`
}

// Analyze scores the single polygon of req.geometry.
func (s *AnalysisService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	var in analyzeRequest
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	if len(in.Geometry) == 0 || string(in.Geometry) == "null" {
		return nil, status.Error(codes.InvalidArgument, "geometry is required")
	}
	if err := partition.ValidateMaxArea(in.MaxArea); err != nil {
		return nil, ToStatus(err)
	}

	opts := analysis.Options{LandOwnership: s.ownership, SplitLargeAreas: in.SplitLargeAreas, MaxArea: in.MaxArea}
	if in.LandOwnership != "" {
		if opts.LandOwnership, err = suitability.ParseLandOwnership(in.LandOwnership); err != nil {
			return nil, ToStatus(err)
		}
	}

	sites, err := s.parser.ParseGeoJSON(in.Geometry)
	if err != nil {
		return nil, ToStatus(err)
	}
	if len(sites) > 1 {
		return nil, status.Errorf(codes.InvalidArgument, "geometry holds %d polygons; analyze each separately", len(sites))
	}
	site := sites[0]
	if name := strings.TrimSpace(in.Name); name != "" {
		site.Name = name
	}

	_, res, err := s.analyzer.Analyze(ctx, analysis.NewSession(opts), site)
	if err != nil {
		if errors.HTTPStatusForCode(errors.GetCode(err)) >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", logging.Site(site.Name), logging.Err(err))
		}
		return nil, ToStatus(err)
	}
	return toStruct(res)
}

// ListParameters returns {"parameters": [...], "totalWeight": n}.
func (s *AnalysisService) ListParameters(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	set := s.analyzer.Parameters()
	return toStruct(map[string]interface{}{
		"parameters":  set.Specs(),
		"totalWeight": set.TotalWeight(),
	})
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// ToStatus maps an application error onto a gRPC status. Server-side
// failures other than 501 keep only the generic message of their code.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := errors.GetCode(err)
	httpStatus := errors.HTTPStatusForCode(code)
	msg := err.Error()
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if errors.MasksMessage(code) {
		msg = errors.DefaultMessageForCode(code)
	}

	var c codes.Code
	switch httpStatus {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		c = codes.InvalidArgument
	case http.StatusNotFound:
		c = codes.NotFound
	case http.StatusConflict:
		c = codes.AlreadyExists
	case http.StatusRequestTimeout:
		c = codes.Canceled
	case http.StatusTooManyRequests:
		c = codes.ResourceExhausted
	case http.StatusNotImplemented:
		c = codes.Unimplemented
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		c = codes.Unavailable
	case http.StatusGatewayTimeout:
		c = codes.DeadlineExceeded
	default:
		c = codes.Internal
	}
	return status.Error(c, msg)
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalysisServiceServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Analyze"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalysisServiceServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listParametersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalysisServiceServer).ListParameters(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListParameters"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalysisServiceServer).ListParameters(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// AnalysisServiceDesc registers an AnalysisServiceServer on a grpc.Server.
var AnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "ListParameters", Handler: listParametersHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "solarsite/v1/analysis.proto",
}

// AnalysisServiceClient calls solarsite.v1.AnalysisService.
type AnalysisServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalysisServiceClient(cc grpc.ClientConnInterface) *AnalysisServiceClient {
	return &AnalysisServiceClient{cc: cc}
}

func (c *AnalysisServiceClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Analyze", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnalysisServiceClient) ListParameters(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListParameters", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

//Personal.AI order the ending
