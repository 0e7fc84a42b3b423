package emergency

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

const (
	rootResponse      = "response"
	rootServiceError  = "OpenAPI_ServiceResponse"
	updateStampLayout = "20060102150405"

	// maxCount caps parsed counts; no facility reports anywhere near it.
	maxCount = 100000
)

// envelope covers both the normal <response> document and the gateway's
// <OpenAPI_ServiceResponse> error document.
type envelope struct {
	XMLName      xml.Name
	Header       *header       `xml:"header"`
	Body         *body         `xml:"body"`
	CmmMsgHeader *cmmMsgHeader `xml:"cmmMsgHeader"`
}

type header struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type cmmMsgHeader struct {
	ErrMsg           string `xml:"errMsg"`
	ReturnAuthMsg    string `xml:"returnAuthMsg"`
	ReturnReasonCode string `xml:"returnReasonCode"`
}

type body struct {
	Items      *items `xml:"items"`
	NumOfRows  string `xml:"numOfRows"`
	PageNo     string `xml:"pageNo"`
	TotalCount string `xml:"totalCount"`
}

type items struct {
	Item []item `xml:"item"`
}

// item carries the union of the live and roster fields; numbers stay text so
// blanks and junk can be handled explicitly.
type item struct {
	HPID       string `xml:"hpid"`
	DutyName   string `xml:"dutyName"`
	DutyTel3   string `xml:"dutyTel3"`
	Hvec       string `xml:"hvec"`
	Hv28       string `xml:"hv28"`
	Hv29       string `xml:"hv29"`
	Hv30       string `xml:"hv30"`
	Hv42       string `xml:"hv42"`
	Hvctayn    string `xml:"hvctayn"`
	Hvmriayn   string `xml:"hvmriayn"`
	Hvangioayn string `xml:"hvangioayn"`
	Hventiayn  string `xml:"hventiayn"`
	Phpid      string `xml:"phpid"`
	Hvidate    string `xml:"hvidate"`
	Wgs84Lat   string `xml:"wgs84Lat"`
	Wgs84Lon   string `xml:"wgs84Lon"`
}

// decodeEnvelope validates the document shape shared by both operations and
// returns its items. A nil error with zero items is a valid empty result.
func decodeEnvelope(data []byte) ([]item, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, apperrors.NewPayloadError("empty response body", nil)
	}

	var env envelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, 0, apperrors.NewPayloadError("malformed XML", err)
	}

	if env.XMLName.Local == rootServiceError || env.CmmMsgHeader != nil {
		msg := "service error"
		if env.CmmMsgHeader != nil {
			msg = strings.TrimSpace(strings.Join([]string{
				env.CmmMsgHeader.ErrMsg,
				env.CmmMsgHeader.ReturnAuthMsg,
				env.CmmMsgHeader.ReturnReasonCode,
			}, " "))
		}
		return nil, 0, apperrors.NewPayloadError("upstream reported an error: "+msg, nil)
	}
	if env.XMLName.Local != rootResponse {
		return nil, 0, apperrors.NewPayloadError(fmt.Sprintf("unrecognized envelope <%s>", env.XMLName.Local), nil)
	}
	if env.Header != nil {
		code := strings.TrimSpace(env.Header.ResultCode)
		if code != "" && code != "00" && code != "0000" {
			return nil, 0, apperrors.NewPayloadError(
				fmt.Sprintf("upstream result %s: %s", code, strings.TrimSpace(env.Header.ResultMsg)), nil)
		}
	}
	if env.Body == nil || env.Body.Items == nil {
		return nil, 0, apperrors.NewPayloadError("response has no items element", nil)
	}

	total, _ := strconv.Atoi(strings.TrimSpace(env.Body.TotalCount))
	return env.Body.Items.Item, total, nil
}

// ParseLive classifies a live bed-count document. fetchedAt labels records
// that carry no update stamp of their own.
func ParseLive(data []byte, fetchedAt time.Time) providers.LiveResponse {
	rawItems, _, err := decodeEnvelope(data)
	if err != nil {
		return providers.LiveResponse{Status: providers.LiveUnusable, Err: err}
	}
	if len(rawItems) == 0 {
		return providers.LiveResponse{Status: providers.LiveEmpty}
	}

	fallbackLabel := fetchedAt.In(entities.KST).Format("15:04")
	seen := make(map[string]struct{}, len(rawItems))
	records := make([]entities.HospitalRecord, 0, len(rawItems))
	for _, it := range rawItems {
		id := strings.TrimSpace(it.HPID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		records = append(records, it.toRecord(fallbackLabel))
	}

	if len(records) == 0 {
		return providers.LiveResponse{
			Status: providers.LiveUnusable,
			Err:    apperrors.NewPayloadError("items carry no facility identifiers", nil),
		}
	}
	return providers.LiveResponse{Status: providers.LivePopulated, Records: records}
}

// parseList extracts id → coordinate pairs from one roster page. It returns
// the number of items on the page and the advertised total.
func parseList(data []byte) (map[string]entities.Coordinate, int, int, error) {
	rawItems, total, err := decodeEnvelope(data)
	if err != nil {
		return nil, 0, 0, err
	}

	coords := make(map[string]entities.Coordinate, len(rawItems))
	for _, it := range rawItems {
		id := strings.TrimSpace(it.HPID)
		if id == "" {
			continue
		}
		if c := it.coordinate(); c != nil {
			coords[id] = *c
		}
	}
	return coords, len(rawItems), total, nil
}

func (it item) toRecord(fallbackLabel string) entities.HospitalRecord {
	label := fallbackLabel
	if stamp, err := time.ParseInLocation(updateStampLayout, strings.TrimSpace(it.Hvidate), entities.KST); err == nil {
		label = stamp.Format("15:04")
	}

	return entities.HospitalRecord{
		ID:                            strings.TrimSpace(it.HPID),
		Name:                          strings.TrimSpace(it.DutyName),
		Phone:                         strings.TrimSpace(it.DutyTel3),
		GeneralBedsAvailable:          parseCount(it.Hvec),
		PediatricBedsAvailable:        parseCount(it.Hv28),
		DeliveryRoomsAvailable:        parseCount(it.Hv42),
		IsolationBedsNegativePressure: parseCount(it.Hv29),
		IsolationBedsGeneral:          parseCount(it.Hv30),
		HasCT:                         parseFlag(it.Hvctayn),
		HasMRI:                        parseFlag(it.Hvmriayn),
		HasAngio:                      parseFlag(it.Hvangioayn),
		HasVentilator:                 parseFlag(it.Hventiayn),
		ParentFacilityID:              strings.TrimSpace(it.Phpid),
		LastUpdatedLabel:              label,
		Coordinate:                    it.coordinate(),
	}
}

func (it item) coordinate() *entities.Coordinate {
	lat := parseFloat(it.Wgs84Lat)
	lon := parseFloat(it.Wgs84Lon)
	if lat == 0 || lon == 0 || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &entities.Coordinate{Latitude: lat, Longitude: lon}
}

// parseCount reads an availability count. Blank or junk text is 0, the
// upstream's negative overcrowding values are clamped to 0 and absurd values
// to maxCount.
func parseCount(s string) int {
	v := parseFloat(s)
	switch {
	case v <= 0:
		return 0
	case v >= maxCount:
		return maxCount
	}
	return int(v)
}

// parseFloat reads a finite number; anything else, NaN and Inf included, is 0.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Y")
}
