package controllers

import (
	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/util"
)

type routeRequest struct {
	Lonlats         string   `json:"lonlats" validate:"required"`
	Profile         string   `json:"profile" validate:"required,max=128"`
	AlternativeIdx  int      `json:"alternativeidx" validate:"min=0,max=3"`
	Nogos           []string `json:"nogo" validate:"max=64"`
	ExportWaypoints bool     `json:"export_waypoints"`
}

type alternativeRoutesRequest struct {
	routeRequest
	K int `json:"k" validate:"required,min=1,max=4"`
}

type trackPointResponse struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
	Distance  float64  `json:"distance"`
}

type waypointResponse struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

type routeResponse struct {
	Name      string               `json:"name,omitempty"`
	Length    float64              `json:"length"`
	Ascend    float64              `json:"ascend"`
	Path      string               `json:"path"`
	Points    []trackPointResponse `json:"points"`
	Waypoints []waypointResponse   `json:"waypoints,omitempty"`
}

func NewRouteResponse(route *datastructure.Route) routeResponse {
	resp := routeResponse{
		Name:   route.Name,
		Length: util.RoundFloat(route.Length, 1),
		Ascend: util.RoundFloat(route.Ascend(), 1),
		Path:   route.Polyline(),
		Points: make([]trackPointResponse, len(route.Points)),
	}
	for i, p := range route.Points {
		resp.Points[i] = trackPointResponse{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Elevation: p.Elevation,
			Distance:  util.RoundFloat(p.Distance, 1),
		}
	}
	for _, w := range route.Waypoints {
		resp.Waypoints = append(resp.Waypoints, waypointResponse{Lat: w.Lat, Lon: w.Lon, Name: w.Name})
	}
	return resp
}

type alternativeRouteResponse struct {
	Index int            `json:"alternativeidx"`
	Route *routeResponse `json:"route,omitempty"`
	Error *errorBody     `json:"error,omitempty"`
}

func NewAlternativeRoutesResponse(alts []brouter.Alternative) []alternativeRouteResponse {
	resp := make([]alternativeRouteResponse, 0, len(alts))
	for _, alt := range alts {
		item := alternativeRouteResponse{Index: alt.Index}
		if alt.Err != nil {
			item.Error = &errorBody{Code: util.KindName(alt.Err), Message: alt.Err.Error()}
		} else {
			r := NewRouteResponse(alt.Route)
			item.Route = &r
		}
		resp = append(resp, item)
	}
	return resp
}

type profileResponse struct {
	ProfileID string `json:"profileid"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
