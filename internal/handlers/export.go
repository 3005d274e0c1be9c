package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seelander09/home-marketing-sub001/pkg/api/propensity"
	"github.com/seelander09/home-marketing-sub001/pkg/clients/crm"
	"github.com/seelander09/home-marketing-sub001/pkg/logging"
	"github.com/seelander09/home-marketing-sub001/pkg/middleware"
	"github.com/seelander09/home-marketing-sub001/pkg/models"
)

var csvHeader = []string{
	"propertyId", "address", "owner", "priority", "ownerType",
	"city", "state", "zip",
	"overallScore", "heuristicScore", "confidence", "modelProbability",
	"heuristicWeight", "modelWeight", "featureCompleteness",
	"drivers", "riskFlags",
}

// ExportSellerPredictions runs the same scoring pipeline as the JSON endpoint
// and renders the scores as CSV. The document is built fully in memory so a
// failure never produces a partial download. Export runs never persist to the
// run log.
func ExportSellerPredictions(c *gin.Context) {
	start := time.Now()
	defer func() {
		if serviceMetrics != nil {
			serviceMetrics.ScoringDuration.WithLabelValues("export").Observe(time.Since(start).Seconds())
		}
	}()

	opts, _, errMsg := parseScoreOptions(c)
	if errMsg != "" {
		c.JSON(http.StatusUnprocessableEntity, propensity.ErrorResponse{Error: errMsg})
		return
	}

	analysis, err := scorer.ScoreAll(c.Request.Context(), opts)
	if err != nil {
		if serviceMetrics != nil {
			serviceMetrics.ScoringRuns.WithLabelValues("export", "error").Inc()
		}
		middleware.GetContextLogger(c, logger).WithError(err).Error("Export scoring run failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Scoring failed"})
		return
	}

	body, err := renderScoresCSV(analysis.Scores)
	if err != nil {
		middleware.GetContextLogger(c, logger).WithError(err).Error("CSV rendering failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Export failed"})
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.ScoringRuns.WithLabelValues("export", "success").Inc()
		serviceMetrics.PropertiesScored.WithLabelValues("export").Add(float64(analysis.SampleSize))
	}

	c.Header("Content-Disposition", `attachment; filename="seller-propensity.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

func renderScoresCSV(scores []models.SellerPropensityScore) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, score := range scores {
		modelProbability := ""
		if score.ModelPrediction != nil {
			modelProbability = formatFloat(score.ModelPrediction.Probability)
		}
		row := []string{
			score.PropertyID,
			score.PropertyDetails.Address,
			score.PropertyDetails.Owner,
			score.PropertyDetails.Priority,
			score.Cohorts["ownerType"],
			score.Geography.City,
			score.Geography.State,
			score.Geography.Zip,
			strconv.Itoa(score.OverallScore),
			formatFloat(score.HeuristicScore),
			formatFloat(score.Confidence),
			modelProbability,
			formatFloat(score.Attribution.HeuristicWeight),
			formatFloat(score.Attribution.ModelWeight),
			formatFloat(score.FeatureCompleteness),
			strings.Join(score.Drivers, "|"),
			strings.Join(score.RiskFlags, "|"),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// PushSellerPredictions forwards the requested catalogue entries to the CRM
// webhook. Delivery failure after retries surfaces as a 502.
func PushSellerPredictions(c *gin.Context) {
	var req propensity.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, propensity.ErrorResponse{Error: "Invalid push payload: " + err.Error()})
		return
	}

	opportunities, err := propertyCat.ListAllPropertyOpportunities(c.Request.Context())
	if err != nil {
		middleware.GetContextLogger(c, logger).WithError(err).Error("Catalogue read failed")
		c.JSON(http.StatusInternalServerError, propensity.ErrorResponse{Error: "Catalogue unavailable"})
		return
	}

	byID := make(map[string]models.PropertyOpportunity, len(opportunities))
	for _, opp := range opportunities {
		byID[opp.PropertyID] = opp
	}

	var matched []models.PropertyOpportunity
	var unmatched []string
	for _, id := range req.PropertyIDs {
		if opp, ok := byID[id]; ok {
			matched = append(matched, opp)
		} else {
			unmatched = append(unmatched, id)
		}
	}

	response := propensity.PushResponse{
		Requested: len(req.PropertyIDs),
		Matched:   len(matched),
		Campaign:  req.Campaign,
		Unmatched: unmatched,
	}

	if len(matched) > 0 {
		err := crmClient.SendToCRM(c.Request.Context(), crm.Payload{
			Campaign:   req.Campaign,
			PushedAt:   time.Now().UTC(),
			Properties: matched,
		})
		if err != nil {
			if serviceMetrics != nil {
				serviceMetrics.CRMPushes.WithLabelValues("error").Inc()
			}
			middleware.GetContextLogger(c, logger).WithError(err).Error("CRM delivery failed")
			c.JSON(http.StatusBadGateway, propensity.ErrorResponse{Error: "CRM delivery failed"})
			return
		}
		response.Delivered = len(matched)
	}

	if serviceMetrics != nil {
		serviceMetrics.CRMPushes.WithLabelValues("success").Inc()
	}
	logPushSummary(c, response)
	c.JSON(http.StatusOK, response)
}

func logPushSummary(c *gin.Context, response propensity.PushResponse) {
	middleware.GetContextLogger(c, logger).WithFields(logging.Fields{
		"requested": response.Requested,
		"matched":   response.Matched,
		"delivered": response.Delivered,
		"campaign":  response.Campaign,
	}).Info("CRM push completed")
}
