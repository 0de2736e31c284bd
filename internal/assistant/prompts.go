package assistant

// schemaInfo describes the queryable tables for the SQL-generation prompt.
const schemaInfo = `Tables:
1. accounts
   - account_id (INTEGER, PRIMARY KEY)
   - account_name (VARCHAR, NOT NULL, UNIQUE)
   - current_balance (NUMERIC(14,2), NOT NULL)

2. transactions
   - transaction_id (INTEGER, PRIMARY KEY)
   - date (TIMESTAMP, NOT NULL)
   - amount (NUMERIC(12,2), NOT NULL)
   - merchant (VARCHAR)
   - category (VARCHAR)
   - notes (TEXT)
   - status (VARCHAR, one of: pending, approved, declined, cancelled)
   - account_id (INTEGER, FOREIGN KEY to accounts.account_id)

Common categories: Groceries, Bills & Utilities, Entertainment, Transportation, Shopping, Dining.`

// buildSQLPrompt asks the model for a single read-only PostgreSQL query as
// strict JSON.
func buildSQLPrompt(question string) string {
	return "You are an expert SQL generator for PostgreSQL. Convert the following natural language question into a SQL query.\n\n" +
		"Database Schema:\n" + schemaInfo + "\n\n" +
		"IMPORTANT: In this database, ALL transaction amounts are stored as POSITIVE numbers. " +
		"Expenses like groceries, dining, utilities are positive amounts (e.g., 15.00 for a $15 meal). " +
		"Do NOT filter by amount < 0.\n\n" +
		"Rules:\n" +
		"1. Generate only valid PostgreSQL SQL\n" +
		"2. Generate exactly ONE statement, and it must be a SELECT\n" +
		"3. For relative dates (like \"last week\", \"this month\"), use NOW() - INTERVAL expressions directly in SQL\n" +
		"4. Always JOIN accounts and transactions tables when needed\n" +
		"5. Use ILIKE for case-insensitive text matching\n" +
		"6. All amounts are positive - do not filter by amount < 0\n\n" +
		"Question: " + question + "\n\n" +
		"Return ONLY a JSON object with:\n" +
		"- \"sql\": the SQL query string\n" +
		"- \"explanation\": brief explanation of what the query does\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Do NOT use ```json or any Markdown.\n" +
		"Output must begin with \"{\" and end with \"}\".\n"
}
