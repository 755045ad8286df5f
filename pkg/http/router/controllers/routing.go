package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	helper "github.com/lintang-b-s/brouter-client/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/brouter-client/pkg/http/usecases"
	"go.uber.org/zap"
)

const maxProfileBytes = 1 << 20

type routingAPI struct {
	routingService RoutingService
	log            *zap.Logger
	validate       *validator.Validate
	trans          ut.Translator
}

func New(routingService RoutingService, log *zap.Logger) *routingAPI {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &routingAPI{
		routingService: routingService,
		log:            log,
		validate:       validate,
		trans:          trans,
	}
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.GET("/route", api.route)
	group.GET("/alternativeRoutes", api.alternativeRoutes)
	group.POST("/profile", api.uploadProfile)
}

func (api *routingAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, err := parseRouteRequest(r)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validate.Struct(request); err != nil {
		api.BadRequestResponse(w, r, api.validationError(err))
		return
	}
	query, err := request.toQuery()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	route, err := api.routingService.Route(r.Context(), query)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewRouteResponse(route)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) alternativeRoutes(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request alternativeRoutesRequest
		err     error
	)

	request.routeRequest, err = parseRouteRequest(r)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	request.K, err = strconv.Atoi(r.URL.Query().Get("k"))
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("number of alternatives k is required and must be a valid int"))
		return
	}
	if err := api.validate.Struct(request); err != nil {
		api.BadRequestResponse(w, r, api.validationError(err))
		return
	}
	query, err := request.toQuery()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	alternatives, err := api.routingService.AlternativeRoutes(r.Context(), query, request.K)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewAlternativeRoutesResponse(alternatives)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) uploadProfile(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil {
		api.BadRequestResponse(w, r, fmt.Errorf("read profile: %w", err))
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		api.BadRequestResponse(w, r, errors.New("profile body is required"))
		return
	}

	id, err := api.routingService.UploadProfile(r.Context(), data)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": profileResponse{ProfileID: id}}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func parseRouteRequest(r *http.Request) (routeRequest, error) {
	query := r.URL.Query()
	request := routeRequest{
		Lonlats: query.Get("lonlats"),
		Profile: query.Get("profile"),
		Nogos:   query["nogo"],
	}
	if s := query.Get("alternativeidx"); s != "" {
		idx, err := strconv.Atoi(s)
		if err != nil {
			return routeRequest{}, errors.New("alternativeidx must be a valid int")
		}
		request.AlternativeIdx = idx
	}
	switch query.Get("exportWaypoints") {
	case "1", "true":
		request.ExportWaypoints = true
	}
	return request, nil
}

func (req routeRequest) toQuery() (usecases.RouteQuery, error) {
	points, err := brouter.DecodePoints(req.Lonlats)
	if err != nil {
		return usecases.RouteQuery{}, fmt.Errorf("lonlats: %w", err)
	}
	nogos := make([]brouter.Nogo, 0, len(req.Nogos))
	for _, s := range req.Nogos {
		n, err := brouter.ParseNogo(s)
		if err != nil {
			return usecases.RouteQuery{}, err
		}
		nogos = append(nogos, n)
	}
	return usecases.RouteQuery{
		Points:          points,
		Profile:         req.Profile,
		AlternativeIdx:  req.AlternativeIdx,
		Nogos:           nogos,
		ExportWaypoints: req.ExportWaypoints,
	}, nil
}

func (api *routingAPI) validationError(err error) error {
	vv := translateError(err, api.trans)
	vvString := []string{}
	for _, v := range vv {
		vvString = append(vvString, v.Error())
	}
	return fmt.Errorf("validation error: %v", vvString)
}
