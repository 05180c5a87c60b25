package flights

// Travelport JSON API v11 CatalogProductOfferings payloads.

func passengerCriteria(passengers int) []map[string]any {
	if passengers < 1 {
		passengers = 1
	}
	return []map[string]any{{
		"@type":             "PassengerCriteria",
		"number":            passengers,
		"passengerTypeCode": "ADT",
	}}
}

func searchModifiers(preferredCarriers []string) map[string]any {
	if len(preferredCarriers) == 0 {
		return nil
	}
	return map[string]any{
		"@type": "SearchModifiersAir",
		"CarrierPreference": []map[string]any{{
			"@type":          "CarrierPreference",
			"preferenceType": "Preferred",
			"carriers":       preferredCarriers,
		}},
	}
}

func flightCriteria(from, to, date string) map[string]any {
	return map[string]any{
		"@type":         "SearchCriteriaFlight",
		"departureDate": date,
		"From":          map[string]any{"value": from},
		"To":            map[string]any{"value": to},
	}
}

func catalogRequest(criteria []map[string]any, req SearchRequest) map[string]any {
	inner := map[string]any{
		"@type":                        "CatalogProductOfferingsRequestAir",
		"maxNumberOfUpsellsToReturn":   0,
		"contentSourceList":            []string{"GDS"},
		"PassengerCriteria":            passengerCriteria(req.Passengers),
		"SearchCriteriaFlight":         criteria,
	}
	if mods := searchModifiers(req.PreferredCarriers); mods != nil {
		inner["SearchModifiersAir"] = mods
	}
	return map[string]any{
		"CatalogProductOfferingsQueryRequest": map[string]any{
			"CatalogProductOfferingsRequest": inner,
		},
	}
}

func buildOneWayPayload(req SearchRequest) map[string]any {
	return catalogRequest([]map[string]any{
		flightCriteria(req.FromIATA, req.ToIATA, req.DepartureDate),
	}, req)
}

func buildRoundTripPayload(req SearchRequest) map[string]any {
	return catalogRequest([]map[string]any{
		flightCriteria(req.FromIATA, req.ToIATA, req.DepartureDate),
		flightCriteria(req.ToIATA, req.FromIATA, req.ReturnDate),
	}, req)
}
