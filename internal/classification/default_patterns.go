package classification

import "github.com/Veraticus/spice-forecast/internal/model"

// DefaultPatterns returns the built-in merchant patterns.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// Specific merchants that would otherwise be caught by a broader pattern
		{
			Name:       "Food Delivery",
			Category:   model.CategoryDining,
			Regex:      `\b(UBER\s*EATS|DOORDASH|GRUBHUB|POSTMATES|DELIVEROO)\b`,
			Priority:   110,
			Confidence: 0.92,
		},
		{
			Name:       "Streaming",
			Category:   model.CategorySubscriptions,
			Regex:      `\b(NETFLIX|SPOTIFY|HULU|DISNEY\s*PLUS|HBO\s*MAX|YOUTUBE\s*PREMIUM|APPLE\.COM/BILL|AUDIBLE|PATREON)\b`,
			Priority:   105,
			Confidence: 0.93,
		},
		{
			Name:       "Savings Transfer",
			Category:   model.CategorySavings,
			Regex:      `\b(TRANSFER\s*TO\s*SAVINGS|SAVINGS\s*DEPOSIT|VANGUARD|FIDELITY\s*INVEST|SCHWAB\s*BROKERAGE|ROTH\s*IRA)\b`,
			Priority:   105,
			Confidence: 0.9,
		},

		// Essentials
		{
			Name:       "Rent",
			Category:   model.CategoryHousing,
			Regex:      `\b(RENT|MORTGAGE|LANDLORD|HOA\s*DUES|PROPERTY\s*MGMT|APARTMENTS?)\b`,
			Priority:   100,
			Confidence: 0.9,
		},
		{
			Name:       "Utilities",
			Category:   model.CategoryUtilities,
			Regex:      `\b(ELECTRIC|PG&E|CON\s*EDISON|WATER\s*(DEPT|UTILITY)|COMCAST|XFINITY|VERIZON|AT&T|T-MOBILE|INTERNET|SEWER)\b`,
			Priority:   95,
			Confidence: 0.88,
		},
		{
			Name:       "Pharmacy",
			Category:   model.CategoryHealthcare,
			Regex:      `\b(PHARMACY|CVS|WALGREENS|RITE\s*AID|CLINIC|HOSPITAL|DENTAL|MEDICAL|URGENT\s*CARE)\b`,
			Priority:   95,
			Confidence: 0.88,
		},
		{
			Name:       "Insurance",
			Category:   model.CategoryInsurance,
			Regex:      `\b(INSURANCE|GEICO|STATE\s*FARM|ALLSTATE|PROGRESSIVE|LIBERTY\s*MUTUAL)\b`,
			Priority:   95,
			Confidence: 0.9,
		},
		{
			Name:       "Tuition",
			Category:   model.CategoryEducation,
			Regex:      `\b(TUITION|UNIVERSITY|COLLEGE|COURSERA|UDEMY|TEXTBOOK)\b`,
			Priority:   90,
			Confidence: 0.88,
		},

		// Day-to-day spending
		{
			Name:       "Grocery",
			Category:   model.CategoryGroceries,
			Regex:      `\b(GROCERY|GROCERIES|SUPERMARKET|WHOLE\s*FOODS|SAFEWAY|KROGER|TRADER\s*JOE'?S|ALDI|PUBLIX|COSTCO)\b`,
			Priority:   90,
			Confidence: 0.9,
		},
		{
			Name:       "Restaurant",
			Category:   model.CategoryDining,
			Regex:      `\b(RESTAURANT|CAFE|COFFEE|STARBUCKS|MCDONALD'?S|CHIPOTLE|PIZZA|BURGER|TAQUERIA|SUSHI|DINER)\b`,
			Priority:   85,
			Confidence: 0.87,
		},
		{
			Name:       "Rideshare",
			Category:   model.CategoryTransportation,
			Regex:      `\b(UBER|LYFT|TAXI|PARKING|TRANSIT|METRO|SHELL|CHEVRON|EXXON|FUEL|GAS\s*STATION)\b`,
			Priority:   80,
			Confidence: 0.85,
		},
		{
			Name:       "Travel",
			Category:   model.CategoryTravel,
			Regex:      `\b(AIRLINES?|DELTA\s*AIR|UNITED\s*AIR|SOUTHWEST|AIRBNB|HOTEL|MARRIOTT|HILTON|EXPEDIA|BOOKING\.COM)\b`,
			Priority:   85,
			Confidence: 0.88,
		},
		{
			Name:       "Entertainment",
			Category:   model.CategoryEntertainment,
			Regex:      `\b(CINEMA|AMC\s*THEAT|THEATER|THEATRE|CONCERT|TICKETMASTER|STEAM\s*GAMES|PLAYSTATION|XBOX|BOWLING)\b`,
			Priority:   80,
			Confidence: 0.85,
		},
		{
			Name:       "Personal Care",
			Category:   model.CategoryPersonalCare,
			Regex:      `\b(SALON|BARBER|SPA|NAIL|GYM|FITNESS|SEPHORA|ULTA)\b`,
			Priority:   75,
			Confidence: 0.82,
		},
		{
			Name:       "Software",
			Category:   model.CategoryBusinessExpense,
			Regex:      `\b(AWS|GITHUB|GOOGLE\s*WORKSPACE|ADOBE|ZOOM\.US|SLACK|WEWORK|COWORKING|FIGMA)\b`,
			Priority:   75,
			Confidence: 0.82,
		},
		{
			Name:       "Retail",
			Category:   model.CategoryShopping,
			Regex:      `\b(AMAZON|AMZN|TARGET|WALMART|BEST\s*BUY|ETSY|EBAY|IKEA|MACY'?S)\b`,
			Priority:   70,
			Confidence: 0.8,
		},
	}
}
