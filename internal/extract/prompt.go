package extract

// systemPrompt pins the collaborator to machine-readable output.
const systemPrompt = "You are a financial data extraction assistant. You must respond with valid JSON only, no additional text or explanation."

// extractionPrompt encodes the extraction contract: group figures only, the
// latest 3-months column only, parenthesized figures as negatives, values
// rescaled out of thousands, and null for anything not explicitly stated.
const extractionPrompt = `Extract financial information from the quarterly report and return ONLY a JSON object with no additional text or explanation.
Important: Numbers shown in parentheses () in the financial statements should be treated as negative values.
For example, if you see (1,000) it should be recorded as -1000 in the JSON output.

CRITICAL INSTRUCTIONS:
1. Only extract values from the LATEST "03 months" or "3 months" column in the financial statements.
   - This might not be the first column
   - Look for the most recent quarter's data
   - Ignore previous quarter's 03 months data
2. Focus ONLY on GROUP financials, not company financials
   - Look for sections labeled as "Group" or "Consolidated"
   - Ignore any sections labeled as "Company" or standalone entity
3. Ignore any values from:
   - "06 months" or "6 months" columns
   - "12 months" or "1 year" columns
   - Previous quarter's data
   - Company-level financials

IMPORTANT: All monetary values in the financial statements are in thousands (Rs. '000). When extracting, multiply all currency values by 1,000 so that the output JSON contains the true value (e.g., 23,458 should be output as 23458000).

If a value is not found in the document or you are uncertain about it, use null instead of making assumptions.
Do not calculate or estimate missing values - only include values that are explicitly stated in the document.

The response must be a valid JSON object with the following structure:
{
    "quarter": "Q1/Q2/Q3/Q4",
    "year": "YYYY",
    "financial_metrics": {
        "revenue": "value",
        "cost_of_goods_sold": "value",
        "gross_profit": "value",
        "other_income": "value",
        "distribution_costs": "value",
        "administrative_expenses": "value",
        "operating_income": "value",
        "finance_costs": "value",
        "finance_income": "value",
        "share_of_profit_equity_investee": "value",
        "profit_before_tax": "value",
        "tax_expense": "value",
        "net_income": "value",
        "eps_basic": "value",
        "eps_diluted": "value",
        "dividend_per_share": "value"
    }
}
Do not include any text before or after the JSON object. The response must be parseable JSON only.
All monetary values should be numbers (not strings) and negative values should be represented with a minus sign.
Use null for any values that are not explicitly stated in the document.`
